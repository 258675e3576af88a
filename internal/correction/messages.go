package correction

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Messages каталог текстов ошибок по виду ошибки.
// Передается в Validator и Builder явно, глобального состояния нет.
type Messages map[Kind]string

// DefaultMessages возвращает новую копию встроенного каталога
func DefaultMessages() Messages {
	return Messages{
		KindWorkStartRequired:     "Укажите время прихода",
		KindWorkEndRequired:       "Укажите время ухода",
		KindAttendanceTimeInvalid: "Время прихода или ухода указано некорректно",
		KindBreakStartRequired:    "Укажите время начала перерыва",
		KindBreakEndRequired:      "Укажите время окончания перерыва",
		KindBreakTimeInvalid:      "Время перерыва указано некорректно",
		KindBreakEndBeforeStart:   "Окончание перерыва должно быть позже его начала",
		KindBreakExceedsWorkEnd:   "Перерыв не может заканчиваться позже времени ухода",
		KindBreakOverlap:          "Перерывы пересекаются",
		KindReasonRequired:        "Укажите причину исправления",
		KindReasonTooLong:         fmt.Sprintf("Причина должна быть не длиннее %d символов", MaxReasonLength),
		KindTimeFormatInvalid:     "Время должно быть в формате ЧЧ:ММ",
		KindRestUnknown:           "Такого перерыва нет в этой записи",
	}
}

// Text текст для вида ошибки; если ключа нет, возвращает сам ключ
func (m Messages) Text(kind Kind) string {
	if text, ok := m[kind]; ok && text != "" {
		return text
	}
	return string(kind)
}

// LoadMessages читает YAML вида `break_overlap: "..."` поверх встроенного каталога
func LoadMessages(r io.Reader) (Messages, error) {
	overrides := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&overrides); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := DefaultMessages()
	for key, text := range overrides {
		kind := Kind(key)
		if _, known := messages[kind]; !known {
			return nil, fmt.Errorf("unknown message key %q", key)
		}
		messages[kind] = text
	}
	return messages, nil
}

// LoadMessagesFile как LoadMessages, пустой путь дает встроенный каталог
func LoadMessagesFile(path string) (Messages, error) {
	if path == "" {
		return DefaultMessages(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open messages file: %w", err)
	}
	defer f.Close()

	return LoadMessages(f)
}
