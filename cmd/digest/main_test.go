package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"lifeline/internal/models"
	"lifeline/internal/service"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeSessions []models.Session

func (f fakeSessions) ActiveSessions(ctx context.Context) ([]models.Session, error) {
	return f, nil
}

// medsBackend serves GET /medications per bearer token
type medsBackend struct {
	meds []models.Medication
	err  error
}

func (b *medsBackend) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if b.err != nil {
		return b.err
	}
	raw, _ := json.Marshal(b.meds)
	return json.Unmarshal(raw, out)
}

func (b *medsBackend) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	return errors.New("not supported")
}

type recordingMailer struct {
	sent map[string]*service.InventoryDigest
}

func (m *recordingMailer) SendInventoryDigest(ctx context.Context, to string, digest *service.InventoryDigest) error {
	m.sent[to] = digest
	return nil
}

func newRun(sessions fakeSessions, backends map[string]*medsBackend, dryRun bool) (*digestRun, *recordingMailer, *bytes.Buffer) {
	mail := &recordingMailer{sent: map[string]*service.InventoryDigest{}}
	var out bytes.Buffer
	return &digestRun{
		sessions: sessions,
		newBackend: func(token string) service.Backend {
			return backends[token]
		},
		mail:   mail,
		clock:  testclock.NewClock(now),
		out:    &out,
		dryRun: dryRun,
	}, mail, &out
}

func TestRunSendsOneDigestPerUser(t *testing.T) {
	backends := map[string]*medsBackend{
		"t1": {meds: []models.Medication{
			{ID: 1, Name: "Aspirin", Quantity: 3},
			{ID: 2, Name: "Cough syrup", Quantity: 50, ExpirationDate: models.NewDate(now.AddDate(0, 0, -2))},
			{ID: 3, Name: "Plasters", Quantity: 40},
		}},
		"t2": {meds: []models.Medication{{ID: 4, Name: "Vitamin D", Quantity: 90}}},
		"t3": {err: errors.New("backend down")},
	}
	sessions := fakeSessions{
		{ID: "a", UserEmail: "ana@example.com", Token: "t1"},
		{ID: "b", UserEmail: "ana@example.com", Token: "t1"},
		{ID: "c", UserEmail: "ben@example.com", Token: "t2"},
		{ID: "d", UserEmail: "cy@example.com", Token: "t3"},
	}
	run, mail, _ := newRun(sessions, backends, false)

	if err := run.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("sent %d digests, want 1: %v", len(mail.sent), mail.sent)
	}
	digest := mail.sent["ana@example.com"]
	if digest == nil {
		t.Fatal("no digest for ana@example.com")
	}
	if len(digest.Expired) != 1 || digest.Expired[0].Name != "Cough syrup" {
		t.Errorf("Expired = %+v", digest.Expired)
	}
	if len(digest.LowStock) != 1 || digest.LowStock[0].Name != "Aspirin" {
		t.Errorf("LowStock = %+v", digest.LowStock)
	}
}

func TestRunDryRunPrintsTable(t *testing.T) {
	backends := map[string]*medsBackend{
		"t1": {meds: []models.Medication{{ID: 1, Name: "Aspirin", Quantity: 3}}},
	}
	run, mail, out := newRun(fakeSessions{{ID: "a", UserEmail: "ana@example.com", Token: "t1"}}, backends, true)

	if err := run.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(mail.sent) != 0 {
		t.Errorf("dry run sent %d emails", len(mail.sent))
	}
	printed := out.String()
	for _, want := range []string{"EMAIL", "ana@example.com", "low stock", "Aspirin"} {
		if !strings.Contains(printed, want) {
			t.Errorf("output missing %q:\n%s", want, printed)
		}
	}
}
