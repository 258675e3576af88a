package service

import "errors"

var (
	ErrUserNotFound        = errors.New("пользователь не найден")
	ErrEmptyName           = errors.New("имя не может быть пустым")
	ErrForbidden           = errors.New("доступ запрещен")
	ErrAttendanceNotFound  = errors.New("запись посещаемости не найдена")
	ErrCorrectionNotFound  = errors.New("заявка не найдена")
	ErrAlreadyWorking      = errors.New("у вас уже есть незавершенный рабочий день")
	ErrAlreadyClockedToday = errors.New("сегодня вы уже отмечались")
	ErrNotWorking          = errors.New("у вас нет начатого рабочего дня")
	ErrRestInProgress      = errors.New("сначала завершите перерыв")
	ErrNoOpenRest          = errors.New("у вас нет начатого перерыва")
)
