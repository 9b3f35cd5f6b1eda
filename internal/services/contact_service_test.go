package services

import (
	"strings"
	"testing"

	"spendwise/internal/pagination"
	"spendwise/internal/testutil"
)

func TestContactService_Submit(t *testing.T) {
	valid := ContactInput{
		FullName:  "  Dana Scully ",
		Email:     "Dana@Example.com",
		Subject:   "Feedback",
		Message:   "The dashboard is great.",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}

	t.Run("stores trimmed message", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewContactService(db)

		msg, err := svc.Submit(valid)
		testutil.AssertNoError(t, err)
		if msg.FullName != "Dana Scully" {
			t.Errorf("expected trimmed name, got %q", msg.FullName)
		}
		if msg.Email != "dana@example.com" {
			t.Errorf("expected lower-cased email, got %q", msg.Email)
		}
		if msg.IPAddress != "10.0.0.1" || msg.UserAgent != "test-agent" {
			t.Errorf("client details not recorded: %+v", msg)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewContactService(db)

		cases := map[string]func(in *ContactInput){
			"blank name":        func(in *ContactInput) { in.FullName = "   " },
			"short message":     func(in *ContactInput) { in.Message = "  too short " },
			"blank message":     func(in *ContactInput) { in.Message = "          " },
			"long subject":      func(in *ContactInput) { in.Subject = strings.Repeat("s", 201) },
			"long message body": func(in *ContactInput) { in.Message = strings.Repeat("m", 5001) },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				in := valid
				mutate(&in)
				_, err := svc.Submit(in)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}
	})
}

func TestContactService_ListMessages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewContactService(db)

	for _, subject := range []string{"first", "second", "third"} {
		_, err := svc.Submit(ContactInput{
			FullName: "Dana",
			Email:    "dana@example.com",
			Subject:  subject,
			Message:  "Message about " + subject,
		})
		testutil.AssertNoError(t, err)
	}

	page, err := svc.ListMessages(pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 3 {
		t.Errorf("expected 3 total items, got %d", page.TotalItems)
	}
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 items on the first page, got %d", len(page.Data))
	}
	if !page.HasNext {
		t.Error("expected another page")
	}
}
