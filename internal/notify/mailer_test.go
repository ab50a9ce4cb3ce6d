package notify

import (
	"strings"
	"testing"

	"go_dcd/internal/model"
)

type recordingSender struct {
	recipient string
	subject   string
	body      string
	calls     int
}

func (s *recordingSender) Send(recipient, subject, body string) error {
	s.calls++
	s.recipient = recipient
	s.subject = subject
	s.body = body
	return nil
}

func strPtr(s string) *string { return &s }

func TestNotify_Success(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	rec := &model.DeploymentRecord{
		JobID:          "job-1",
		Memo:           "staging box",
		EmailAddr:      "ops@example.com",
		ChainStatus:    model.ChainStatusActive,
		InstanceID:     strPtr("srv-9"),
		InstanceStatus: strPtr("active"),
	}
	if err := d.Notify(rec); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}

	if sender.calls != 1 {
		t.Fatalf("Expected one send, got %d", sender.calls)
	}
	if sender.recipient != "ops@example.com" {
		t.Errorf("Wrong recipient: %s", sender.recipient)
	}
	if !strings.Contains(sender.subject, "finished") {
		t.Errorf("Expected success subject, got %q", sender.subject)
	}
	for _, want := range []string{"job-1", "srv-9", "active", "staging box"} {
		if !strings.Contains(sender.body, want) {
			t.Errorf("Body missing %q: %s", want, sender.body)
		}
	}
}

func TestNotify_Failure(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	rec := &model.DeploymentRecord{
		JobID:        "job-2",
		Memo:         "test",
		EmailAddr:    "ops@example.com",
		ChainStatus:  model.ChainStatusProvisionFailed,
		ErrorMessage: strPtr("No valid image or flavor"),
	}
	if err := d.Notify(rec); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}

	if !strings.Contains(sender.subject, "failed") {
		t.Errorf("Expected failure subject, got %q", sender.subject)
	}
	for _, want := range []string{"job-2", "provision_failed", "No valid image or flavor"} {
		if !strings.Contains(sender.body, want) {
			t.Errorf("Body missing %q: %s", want, sender.body)
		}
	}
}

func TestNotify_NoRecipient(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	rec := &model.DeploymentRecord{JobID: "job-3", ChainStatus: model.ChainStatusActive}
	if err := d.Notify(rec); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("Expected no send without recipient, got %d", sender.calls)
	}
}
