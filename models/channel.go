package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Channel is one kind of notification destination. The set is closed;
// adding a kind means adding a notifier implementation for it, not
// touching the dispatch algorithm.
type Channel string

const (
	ChannelEmail Channel = "Email"
	ChannelJira  Channel = "JIRA"
	ChannelSlack Channel = "Slack"
)

// Channels returns all channel kinds in their stable dispatch order.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelJira, ChannelSlack}
}

func ParseChannel(name string) (Channel, error) {
	for _, ch := range Channels() {
		if strings.EqualFold(name, string(ch)) {
			return ch, nil
		}
	}
	return "", errors.Errorf("unknown notification channel %q", name)
}

// ChannelSet holds a subset of the channel kinds. Membership is what
// matters; it serializes as a name array both in JSON and in Postgres.
type ChannelSet map[Channel]struct{}

func NewChannelSet(channels ...Channel) ChannelSet {
	set := ChannelSet{}
	for _, ch := range channels {
		set.Add(ch)
	}
	return set
}

func (set ChannelSet) Has(ch Channel) bool {
	_, ok := set[ch]
	return ok
}

func (set ChannelSet) Add(ch Channel) {
	set[ch] = struct{}{}
}

func (set ChannelSet) Remove(ch Channel) {
	delete(set, ch)
}

func (set ChannelSet) Len() int {
	return len(set)
}

func (set ChannelSet) Clone() ChannelSet {
	clone := ChannelSet{}
	for ch := range set {
		clone.Add(ch)
	}
	return clone
}

// Names lists the member channel names in stable enum order.
func (set ChannelSet) Names() []string {
	names := []string{}
	for _, ch := range Channels() {
		if set.Has(ch) {
			names = append(names, string(ch))
		}
	}
	return names
}

func (set ChannelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Names())
}

func (set *ChannelSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := channelSetFromNames(names)
	if err != nil {
		return err
	}
	*set = parsed
	return nil
}

// Value implements driver.Valuer so a ChannelSet column is stored as a
// Postgres text array.
func (set ChannelSet) Value() (driver.Value, error) {
	return pq.StringArray(set.Names()).Value()
}

// Scan implements sql.Scanner for the same text array column.
func (set *ChannelSet) Scan(src interface{}) error {
	var names pq.StringArray
	if err := names.Scan(src); err != nil {
		return errors.Wrap(err, "unable to scan channel set column")
	}
	parsed, err := channelSetFromNames(names)
	if err != nil {
		return err
	}
	*set = parsed
	return nil
}

func channelSetFromNames(names []string) (ChannelSet, error) {
	set := ChannelSet{}
	for _, name := range names {
		ch, err := ParseChannel(name)
		if err != nil {
			return nil, err
		}
		set.Add(ch)
	}
	return set, nil
}
