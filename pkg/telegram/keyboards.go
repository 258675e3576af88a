package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const approveCorrectionPrefix = "approve_correction_"

// ApproveCorrectionData callback_data кнопки одобрения заявки
func ApproveCorrectionData(correctionID uint) string {
	return fmt.Sprintf("%s%d", approveCorrectionPrefix, correctionID)
}

// ParseApproveCorrection ID заявки из callback_data; false если это не кнопка одобрения
func ParseApproveCorrection(data string) (uint, bool) {
	if !strings.HasPrefix(data, approveCorrectionPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(data, approveCorrectionPrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ApproveKeyboard кнопка "Одобрить" под заявкой
func ApproveKeyboard(correctionID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", ApproveCorrectionData(correctionID)),
		),
	)
}
