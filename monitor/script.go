package main

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Script is a list of commands transmitted once when the monitor starts.
type Script struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Commands    []Command `json:"commands"`
}

// Command sets signal values of one message. Signals of the message that are
// not listed are sent as zero.
type Command struct {
	MessageID string             `json:"message_id"` // "0x0C" or "12"
	Values    map[string]float64 `json:"values"`
	Comment   string             `json:"comment,omitempty"`
}

func (c Command) ID() (uint32, error) {
	id, err := strconv.ParseUint(c.MessageID, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid message_id %q", c.MessageID)
	}
	return uint32(id), nil
}

// LoadScript loads a command script from a JSON file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, errors.Wrap(err, "read file")
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, errors.Wrap(err, "parse json")
	}
	for i, c := range s.Commands {
		if _, err := c.ID(); err != nil {
			return Script{}, errors.Wrapf(err, "command %d", i)
		}
		if len(c.Values) == 0 {
			return Script{}, errors.Newf("command %d: no values", i)
		}
	}
	return s, nil
}
