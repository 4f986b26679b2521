package neto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type orderFilter struct {
	DatePlacedFrom []string `json:"DatePlacedFrom"`
	DatePlacedTo   []string `json:"DatePlacedTo"`
	SalesChannel   []string `json:"SalesChannel,omitempty"`
	OutputSelector []string `json:"OutputSelector"`
}

type getOrderRequest struct {
	Filter orderFilter `json:"Filter"`
}

type getOrderResponse struct {
	Order    []orderDTO `json:"Order"`
	Ack      string     `json:"Ack"`
	Messages messages   `json:"Messages"`
}

type messages struct {
	Error   messageList `json:"Error"`
	Warning messageList `json:"Warning"`
}

type orderDTO struct {
	OrderID      string   `json:"OrderID"`
	OrderStatus  string   `json:"OrderStatus"`
	SalesChannel string   `json:"SalesChannel"`
	DatePlaced   string   `json:"DatePlaced"`
	OrderLine    lineList `json:"OrderLine"`
}

type lineDTO struct {
	OrderLineID string  `json:"OrderLineID"`
	SKU         string  `json:"SKU"`
	Quantity    flexInt `json:"Quantity"`
}

// lineList accepts an array of lines or, as the API does for single-line
// orders on some accounts, one bare object.
type lineList []lineDTO

func (l *lineList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case data[0] == '{':
		var one lineDTO
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = lineList{one}
		return nil
	default:
		var many []lineDTO
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = many
		return nil
	}
}

// flexInt decodes numbers sent either as JSON numbers or numeric strings
// ("2", "2.0000").
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", s, err)
	}
	*f = flexInt(int(v))
	return nil
}

// messageList is one message object or a list of them.
type messageList []message

type message struct {
	Message       string `json:"Message"`
	SeverityLevel string `json:"SeverityLevel"`
}

func (m *messageList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if data[0] == '{' {
		var one message
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*m = messageList{one}
		return nil
	}
	var many []message
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}

func (m messageList) String() string {
	parts := make([]string, 0, len(m))
	for _, msg := range m {
		if msg.Message != "" {
			parts = append(parts, msg.Message)
		}
	}
	return strings.Join(parts, "; ")
}
