package correction

import (
	"strings"
)

// Kind вид ошибки проверки. Значение совпадает с ключом в каталоге сообщений.
type Kind string

const (
	KindWorkStartRequired     Kind = "work_start_required"
	KindWorkEndRequired       Kind = "work_end_required"
	KindAttendanceTimeInvalid Kind = "attendance_time_invalid"
	KindBreakStartRequired    Kind = "break_start_required"
	KindBreakEndRequired      Kind = "break_end_required"
	KindBreakTimeInvalid      Kind = "break_time_invalid"
	KindBreakEndBeforeStart   Kind = "break_end_before_start"
	KindBreakExceedsWorkEnd   Kind = "break_exceeds_work_end"
	KindBreakOverlap          Kind = "break_overlap"
	KindReasonRequired        Kind = "reason_required"
	KindReasonTooLong         Kind = "reason_too_long"
	KindTimeFormatInvalid     Kind = "time_format_invalid"
	KindRestUnknown           Kind = "rest_unknown"
)

// Пути полей, по которым адаптер раскладывает сообщения
const (
	PathRequestedStart = "requested_start_time"
	PathRequestedEnd   = "requested_end_time"
	PathReason         = "reason"

	restsPrefix   = "rests."
	fieldStart    = "start_time"
	fieldEnd      = "end_time"
	draftKey      = "new"
	joinSeparator = "\n"
)

// RestStartPath путь поля начала перерыва с ключом key ("new" для черновика)
func RestStartPath(key string) string {
	return restsPrefix + key + "." + fieldStart
}

// RestEndPath путь поля окончания перерыва
func RestEndPath(key string) string {
	return restsPrefix + key + "." + fieldEnd
}

// Issue одна ошибка проверки, привязанная к полю
type Issue struct {
	Path    string `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// IssueList упорядоченный список ошибок. Пустой список значит "данные корректны".
type IssueList []Issue

// Mode как показывать несколько ошибок на одном поле
type Mode int

const (
	// ModeFirstPerPath только первая ошибка на каждый путь
	ModeFirstPerPath Mode = iota
	// ModeJoinPerPath все ошибки пути склеены в одно сообщение
	ModeJoinPerPath
)

// ParseMode "first" или "all"
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return ModeJoinPerPath
	}
	return ModeFirstPerPath
}

func (l IssueList) Empty() bool {
	return len(l) == 0
}

// Has есть ли ошибка на пути path
func (l IssueList) Has(path string) bool {
	for _, issue := range l {
		if issue.Path == path {
			return true
		}
	}
	return false
}

// HasKind есть ли ошибка вида kind
func (l IssueList) HasKind(kind Kind) bool {
	for _, issue := range l {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// ForPath все ошибки пути в исходном порядке
func (l IssueList) ForPath(path string) IssueList {
	var out IssueList
	for _, issue := range l {
		if issue.Path == path {
			out = append(out, issue)
		}
	}
	return out
}

// Surface сворачивает список до одной записи на путь
func (l IssueList) Surface(mode Mode) IssueList {
	if len(l) == 0 {
		return nil
	}

	out := make(IssueList, 0, len(l))
	index := make(map[string]int, len(l))
	for _, issue := range l {
		i, seen := index[issue.Path]
		if !seen {
			index[issue.Path] = len(out)
			out = append(out, issue)
			continue
		}
		if mode == ModeJoinPerPath {
			out[i].Message += joinSeparator + issue.Message
		}
	}
	return out
}

// Map путь -> сообщение, удобно для JSON-ответов
func (l IssueList) Map() map[string]string {
	m := make(map[string]string, len(l))
	for _, issue := range l.Surface(ModeFirstPerPath) {
		m[issue.Path] = issue.Message
	}
	return m
}

// String одна строка вида "path: message; ..."
func (l IssueList) String() string {
	parts := make([]string, 0, len(l))
	for _, issue := range l {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}
