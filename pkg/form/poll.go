package form

import (
	"strings"

	"github.com/goliatone/go-recordforms/pkg/model"
)

// PollOptions returns the editor entries of a poll field, blanks included.
func (f *Form) PollOptions(field string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pollField(field); err != nil {
		return nil, err
	}
	return append([]string(nil), f.polls[field]...), nil
}

// AddPollOption appends a blank entry.
func (f *Form) AddPollOption(field string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pollField(field); err != nil {
		return err
	}
	f.polls[field] = append(f.polls[field], "")
	f.storePollLocked(field)
	return nil
}

// RemovePollOption drops entry index. The editor keeps at least
// MinPollOptions entries.
func (f *Form) RemovePollOption(field string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pollField(field); err != nil {
		return err
	}
	entries := f.polls[field]
	if index < 0 || index >= len(entries) {
		return ErrPollIndex
	}
	if len(entries) <= MinPollOptions {
		return ErrPollMinimum
	}
	f.polls[field] = append(entries[:index:index], entries[index+1:]...)
	f.storePollLocked(field)
	return nil
}

// SetPollOption replaces entry index.
func (f *Form) SetPollOption(field string, index int, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pollField(field); err != nil {
		return err
	}
	entries := f.polls[field]
	if index < 0 || index >= len(entries) {
		return ErrPollIndex
	}
	entries[index] = value
	f.storePollLocked(field)
	return nil
}

func (f *Form) pollField(field string) error {
	desc, ok := model.FindField(f.fields, field)
	if !ok {
		return ErrUnknownField
	}
	if desc.Kind != model.KindPollOptions {
		return ErrNotPollField
	}
	return nil
}

// storePollLocked writes the derived newline-joined value. Only that value
// is submitted; the entry list is editor state.
func (f *Form) storePollLocked(field string) {
	f.draft.Apply(model.OriginUser, field, JoinPoll(f.polls[field]))
}

// JoinPoll keeps the trimmed non-empty entries in order, one per line.
func JoinPoll(entries []string) string {
	kept := make([]string, 0, len(entries))
	for _, entry := range entries {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

func splitPoll(raw string) []string {
	var entries []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			entries = append(entries, trimmed)
		}
	}
	for len(entries) < MinPollOptions {
		entries = append(entries, "")
	}
	return entries
}
