// Package models defines the core data structures exchanged with the
// car backend: user credentials and cars.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Credentials holds what the user typed into a sign-up or sign-in form.
type Credentials struct {
	// Username is the login name typed by the user.
	Username string `json:"username"`
	// Password is the password typed by the user. It is sent as-is.
	Password string `json:"password"`
}

// IsEmpty reports whether both fields are blank.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Password == ""
}

// Car is a single inventory record returned by the backend.
type Car struct {
	// ID identifies the car for list rendering.
	ID CarID `json:"id"`
	// Make is the manufacturer, e.g. "Toyota".
	Make string `json:"make"`
	// ModelName is the model, e.g. "Corolla".
	ModelName string `json:"modelName"`
	// Year is the model year as the backend sent it; empty when absent.
	Year Scalar `json:"year"`
	// Price is kept exactly as the backend encoded it.
	Price Scalar `json:"price"`
}

// Scalar is a display value kept as the backend wrote it: "2022", 2022 and
// 2022.0 decode to "2022", "2022" and "2022.0"; null decodes to "". Any
// other JSON value is kept as its raw text, so one odd record never fails
// the whole inventory.
type Scalar string

// UnmarshalJSON never fails.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	text, err := scalarText(data)
	if err != nil {
		text = string(bytes.TrimSpace(data))
	}
	*s = Scalar(text)
	return nil
}

func (s Scalar) String() string { return string(s) }

// CarID is a car identifier. The backend may encode it as a JSON string or
// number; both decode to the same textual form.
type CarID string

// UnmarshalJSON accepts "7", 7 and null.
func (id *CarID) UnmarshalJSON(data []byte) error {
	text, err := scalarText(data)
	if err != nil {
		return fmt.Errorf("car id: %w", err)
	}
	*id = CarID(text)
	return nil
}

func scalarText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// MarshalJSON writes numeric ids back as numbers and everything else as strings.
func (id CarID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	var n json.Number
	if err := json.Unmarshal([]byte(id), &n); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}
