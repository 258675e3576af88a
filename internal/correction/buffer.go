package correction

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownPath путь не соответствует ни одному полю буфера
var ErrUnknownPath = errors.New("неизвестное поле")

// ExistingSlot поля ввода для уже сохраненного перерыва
type ExistingSlot struct {
	RestID uint
	Start  string
	End    string
}

// DraftSlot поля ввода для нового перерыва. В буфере всегда ровно один.
type DraftSlot struct {
	Start string
	End   string
}

// EditBuffer плоское представление записи для форм: строки "HH:MM" или пустые
type EditBuffer struct {
	RequestedStart string
	RequestedEnd   string
	Existing       []ExistingSlot
	Draft          DraftSlot
	Reason         string
}

// slotJSON поля перерыва на проводе
type slotJSON struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// bufferJSON формат на проводе: перерывы в объекте по id плюс ключ "new"
type bufferJSON struct {
	RequestedStartTime string              `json:"requested_start_time"`
	RequestedEndTime   string              `json:"requested_end_time"`
	Rests              map[string]slotJSON `json:"rests"`
	Reason             string              `json:"reason"`
}

func (b EditBuffer) MarshalJSON() ([]byte, error) {
	out := bufferJSON{
		RequestedStartTime: b.RequestedStart,
		RequestedEndTime:   b.RequestedEnd,
		Rests:              make(map[string]slotJSON, len(b.Existing)+1),
		Reason:             b.Reason,
	}
	for _, slot := range b.Existing {
		out.Rests[strconv.FormatUint(uint64(slot.RestID), 10)] = slotJSON{StartTime: slot.Start, EndTime: slot.End}
	}
	out.Rests[draftKey] = slotJSON{StartTime: b.Draft.Start, EndTime: b.Draft.End}
	return json.Marshal(out)
}

func (b *EditBuffer) UnmarshalJSON(data []byte) error {
	var in bufferJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	buf := EditBuffer{
		RequestedStart: in.RequestedStartTime,
		RequestedEnd:   in.RequestedEndTime,
		Reason:         in.Reason,
	}
	for key, slot := range in.Rests {
		if key == draftKey {
			buf.Draft = DraftSlot{Start: slot.StartTime, End: slot.EndTime}
			continue
		}
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 || strconv.FormatUint(id, 10) != key {
			return fmt.Errorf("invalid rest key %q", key)
		}
		buf.Existing = append(buf.Existing, ExistingSlot{RestID: uint(id), Start: slot.StartTime, End: slot.EndTime})
	}
	sort.Slice(buf.Existing, func(i, j int) bool { return buf.Existing[i].RestID < buf.Existing[j].RestID })

	*b = buf
	return nil
}

// Set записывает значение в поле по пути, который использует валидатор
func (b *EditBuffer) Set(path, value string) error {
	switch path {
	case PathRequestedStart:
		b.RequestedStart = value
		return nil
	case PathRequestedEnd:
		b.RequestedEnd = value
		return nil
	case PathReason:
		b.Reason = value
		return nil
	}

	start, end, err := b.restFields(path)
	if err != nil {
		return err
	}
	if start != nil {
		*start = value
	} else {
		*end = value
	}
	return nil
}

// Get читает значение поля по пути
func (b *EditBuffer) Get(path string) (string, error) {
	switch path {
	case PathRequestedStart:
		return b.RequestedStart, nil
	case PathRequestedEnd:
		return b.RequestedEnd, nil
	case PathReason:
		return b.Reason, nil
	}

	start, end, err := b.restFields(path)
	if err != nil {
		return "", err
	}
	if start != nil {
		return *start, nil
	}
	return *end, nil
}

// restFields находит поле перерыва по пути rests.<key>.<field>; ненулевой ровно один указатель
func (b *EditBuffer) restFields(path string) (*string, *string, error) {
	parts := strings.Split(path, ".")
	if len(parts) != 3 || parts[0]+"." != restsPrefix {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}

	var start, end *string
	if parts[1] == draftKey {
		start, end = &b.Draft.Start, &b.Draft.End
	} else {
		for i := range b.Existing {
			if strconv.FormatUint(uint64(b.Existing[i].RestID), 10) == parts[1] {
				start, end = &b.Existing[i].Start, &b.Existing[i].End
				break
			}
		}
	}
	if start == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}

	switch parts[2] {
	case fieldStart:
		return start, nil, nil
	case fieldEnd:
		return nil, end, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
}

// Paths все пути полей буфера в порядке отображения
func (b EditBuffer) Paths() []string {
	paths := []string{PathRequestedStart, PathRequestedEnd}
	for _, slot := range b.Existing {
		key := strconv.FormatUint(uint64(slot.RestID), 10)
		paths = append(paths, RestStartPath(key), RestEndPath(key))
	}
	paths = append(paths, RestStartPath(draftKey), RestEndPath(draftKey), PathReason)
	return paths
}
