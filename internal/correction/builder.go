package correction

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"attendance-bot/internal/models"
	"attendance-bot/internal/timeofday"
)

// Builder переводит запись посещаемости в буфер редактирования и обратно
type Builder struct {
	loc      *time.Location
	messages Messages
}

// NewBuilder loc часовой пояс, в котором показывается время; nil значит time.Local
func NewBuilder(loc *time.Location, messages Messages) *Builder {
	if loc == nil {
		loc = time.Local
	}
	if messages == nil {
		messages = DefaultMessages()
	}
	return &Builder{loc: loc, messages: messages}
}

// ToEditBuffer заполняет буфер из записи. Если есть заявка на рассмотрении,
// время берется из нее. Причина всегда пустая, слот "new" всегда пустой.
func (b *Builder) ToEditBuffer(record *models.Attendance, pending *models.Correction) EditBuffer {
	buf := EditBuffer{
		RequestedStart: b.format(record.ClockIn),
		RequestedEnd:   b.format(record.ClockOut),
	}

	requested := map[uint]models.CorrectionRest{}
	if pending != nil {
		buf.RequestedStart = pending.RequestedStart.String()
		buf.RequestedEnd = pending.RequestedEnd.String()
		for _, r := range pending.Rests {
			if r.RestID != nil {
				requested[*r.RestID] = r
			}
		}
	}

	for _, rest := range record.Rests {
		slot := ExistingSlot{
			RestID: rest.ID,
			Start:  b.format(&rest.StartAt),
			End:    b.format(rest.EndAt),
		}
		if r, ok := requested[rest.ID]; ok {
			slot.Start = r.StartTime.String()
			slot.End = r.EndTime.String()
		}
		buf.Existing = append(buf.Existing, slot)
	}
	sort.Slice(buf.Existing, func(i, j int) bool { return buf.Existing[i].RestID < buf.Existing[j].RestID })

	return buf
}

// ToSubmission собирает кандидата из буфера. Пустые перерывы отбрасываются,
// частично заполненные остаются, чтобы их отметил валидатор. Строки, которые
// не разбираются как время, возвращаются ошибками формата и в кандидате пусты.
func (b *Builder) ToSubmission(buf EditBuffer) (Candidate, IssueList) {
	var issues IssueList
	parse := func(path, raw string) timeofday.TimeOfDay {
		t, err := timeofday.Parse(raw)
		if err != nil {
			issues = append(issues, Issue{Path: path, Kind: KindTimeFormatInvalid, Message: b.messages.Text(KindTimeFormatInvalid)})
			return timeofday.Empty()
		}
		return t
	}

	c := Candidate{
		Work: WorkInterval{
			Start: parse(PathRequestedStart, buf.RequestedStart),
			End:   parse(PathRequestedEnd, buf.RequestedEnd),
		},
		Reason: buf.Reason,
	}

	existing := append([]ExistingSlot(nil), buf.Existing...)
	sort.Slice(existing, func(i, j int) bool { return existing[i].RestID < existing[j].RestID })

	for _, slot := range existing {
		if blank(slot.Start) && blank(slot.End) {
			continue
		}
		key := strconv.FormatUint(uint64(slot.RestID), 10)
		c.Breaks = append(c.Breaks, ExistingBreak{
			RestID: slot.RestID,
			BreakInterval: BreakInterval{
				Start: parse(RestStartPath(key), slot.Start),
				End:   parse(RestEndPath(key), slot.End),
			},
		})
	}

	if !blank(buf.Draft.Start) || !blank(buf.Draft.End) {
		c.Breaks = append(c.Breaks, DraftBreak{
			BreakInterval: BreakInterval{
				Start: parse(RestStartPath(draftKey), buf.Draft.Start),
				End:   parse(RestEndPath(draftKey), buf.Draft.End),
			},
		})
	}

	return c, issues
}

// Location часовой пояс билдера
func (b *Builder) Location() *time.Location {
	return b.loc
}

func (b *Builder) format(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return timeofday.FromTime(t.In(b.loc)).String()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
