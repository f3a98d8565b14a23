package types

import (
	"strings"
	"testing"
)

func TestIsValidCounterName(t *testing.T) {
	if IsValidCounterName("") {
		t.Error("Empty name must be invalid")
	}
	if !IsValidCounterName("Counter 1") {
		t.Error("Normal name must be valid")
	}
	if !IsValidCounterName(strings.Repeat("a", 100)) {
		t.Error("100-char name must be valid")
	}
	if IsValidCounterName(strings.Repeat("a", 101)) {
		t.Error("101-char name must be invalid")
	}
}

func TestCounterValidate(t *testing.T) {
	c := &Counter{Name: "Counter 1", Categories: []string{"PTPTN"}}
	if err := c.Validate(); err != nil {
		t.Errorf("Expected valid counter, got %v", err)
	}

	c = &Counter{Name: "", Categories: []string{"PTPTN"}}
	if err := c.Validate(); err != ErrInvalidCounterName {
		t.Errorf("Expected ErrInvalidCounterName, got %v", err)
	}

	c = &Counter{Name: "Counter 1"}
	if err := c.Validate(); err != ErrEmptyCategorySet {
		t.Errorf("Expected ErrEmptyCategorySet, got %v", err)
	}
}

func TestTicketActive(t *testing.T) {
	tk := &Ticket{State: TicketWaiting}
	if !tk.Active() {
		t.Error("Waiting ticket must be active")
	}
	for _, state := range []TicketState{TicketCalled, TicketDeleted} {
		tk.State = state
		if tk.Active() {
			t.Errorf("%s ticket must not be active", state)
		}
	}
}

func TestCounterCloneIsIndependent(t *testing.T) {
	c := &Counter{ID: "c1", Name: "Counter 1", Categories: []string{"PTPTN"}}
	d := c.Clone()
	d.Categories[0] = "mutated"
	if c.Categories[0] != "PTPTN" {
		t.Error("Clone must copy the category slice")
	}
}
