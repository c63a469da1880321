package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rjboer/GoNetSDR/internal/telemetry"
)

type fakeController struct {
	connected bool
	started   bool
	startErr  error
	starts    int
	stops     int
}

func (f *fakeController) StartIQ(context.Context) error { f.starts++; return f.startErr }
func (f *fakeController) StopIQ(context.Context) error  { f.stops++; return nil }
func (f *fakeController) Connected() bool               { return f.connected }
func (f *fakeController) IQStarted() bool               { return f.started }

func keypress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestQuitKey(t *testing.T) {
	m := New(telemetry.NewStatsHub(10), &fakeController{})
	_, cmd := m.Update(keypress("q"))
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("q produced %T, want tea.QuitMsg", msg)
	}
}

func TestStartStopKeysDriveController(t *testing.T) {
	ctrl := &fakeController{connected: true}
	m := New(telemetry.NewStatsHub(10), ctrl)

	_, cmd := m.Update(keypress("s"))
	if cmd == nil {
		t.Fatal("s produced no command")
	}
	if msg := cmd().(actionMsg); msg.verb != "start" || msg.err != nil {
		t.Fatalf("start action = %+v", msg)
	}
	if ctrl.starts != 1 {
		t.Errorf("StartIQ calls = %d, want 1", ctrl.starts)
	}

	_, cmd = m.Update(keypress("x"))
	if msg := cmd().(actionMsg); msg.verb != "stop" {
		t.Fatalf("stop action = %+v", msg)
	}
	if ctrl.stops != 1 {
		t.Errorf("StopIQ calls = %d, want 1", ctrl.stops)
	}
}

func TestActionErrorShownInStatusBar(t *testing.T) {
	ctrl := &fakeController{startErr: errors.New("receiver unreachable")}
	m := New(telemetry.NewStatsHub(10), ctrl)

	_, cmd := m.Update(keypress("s"))
	updated, _ := m.Update(cmd())
	view := updated.(Model).View()
	if !strings.Contains(view, "start failed") {
		t.Fatalf("view does not surface the failure:\n%s", view)
	}
}

func TestViewRendersStats(t *testing.T) {
	hub := telemetry.NewStatsHub(10)
	hub.Publish(telemetry.Sample{
		Timestamp:    time.Now(),
		Datagrams:    1234,
		DatagramRate: 500,
		Connected:    true,
		IQStarted:    true,
	})
	ctrl := &fakeController{connected: true, started: true}
	m := New(hub, ctrl)

	updated, _ := m.Update(readStats(hub)())
	view := updated.(Model).View()
	for _, want := range []string{"1234", "connected", "running"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewBeforeFirstSample(t *testing.T) {
	m := New(telemetry.NewStatsHub(10), &fakeController{})
	if view := m.View(); !strings.Contains(view, "waiting for samples") {
		t.Fatalf("empty-hub view missing placeholder:\n%s", view)
	}
}
