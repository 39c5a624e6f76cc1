package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/pomadbg/internal/recorder"
	"github.com/warpdl/pomadbg/pkg/logger"
)

// startEchoServer answers every NUL-terminated command with "OK <cmd>\n".
func startEchoServer(t *testing.T) (string, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for {
			cmd, err := r.ReadString('\x00')
			if err != nil {
				return
			}
			cmd = strings.TrimRight(cmd, "\n\x00")
			if _, err := conn.Write([]byte("OK " + cmd + "\n")); err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() {
		listener.Close()
		wg.Wait()
	})
	addr := listener.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// closedPort returns a loopback port nobody listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}

func newTestSession(t *testing.T, opts runOptions, content string) (*session, *logger.MockLogger) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if content != "" {
		if err := afero.WriteFile(fs, "/session.tpoma", []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write command file: %v", err)
		}
	}
	if opts.File == "" {
		opts.File = "/session.tpoma"
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = time.Second
	}
	if opts.ReceiveTimeout == 0 {
		opts.ReceiveTimeout = 500 * time.Millisecond
	}
	log := logger.NewMockLogger()
	return &session{
		opts: opts,
		log:  log,
		out:  io.Discard,
		in:   strings.NewReader(""),
		fs:   fs,
		now:  time.Now,
	}, log
}

func TestSession_PlaysCommands(t *testing.T) {
	host, port := startEchoServer(t)
	s, log := newTestSession(t, runOptions{Host: host, Port: port}, "# demo\n0.05|?g_var\n0.0|*\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSent := []string{"*\n\x00", "?g_var\n\x00"}
	if len(log.SentCalls) != len(wantSent) {
		t.Fatalf("expected %d sends, got %q", len(wantSent), log.SentCalls)
	}
	for i, w := range wantSent {
		if log.SentCalls[i] != w {
			t.Errorf("send %d: got %q, want %q", i, log.SentCalls[i], w)
		}
	}
	wantRecv := []string{"OK *\n", "OK ?g_var\n"}
	for i, w := range wantRecv {
		if i >= len(log.ReceivedCalls) || log.ReceivedCalls[i] != w {
			t.Fatalf("expected responses %q, got %q", wantRecv, log.ReceivedCalls)
		}
	}

	wantSections := []string{"PoMA Debug Client", "Session Commands:", "PoMA/TCP Connection:", "Debug Session:"}
	for _, w := range wantSections {
		found := false
		for _, s := range log.SectionCalls {
			if s == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing section %q in %q", w, log.SectionCalls)
		}
	}
	assertLogged(t, log.DebugCalls, " Timestamp : Command")
	assertLogged(t, log.DebugCalls, "       0.0 : *␊")
	assertLogged(t, log.DebugCalls, "      0.05 : ?g_var␊")
	assertLogged(t, log.InfoCalls, "Commands: 2 of 2 attempted, 2 sent, 0 failed.")
	assertLogged(t, log.InfoCalls, "Responses received: 2.")
	assertLogged(t, log.InfoCalls, "TCP connection closed.")
}

func TestSession_NoCommands(t *testing.T) {
	s, log := newTestSession(t, runOptions{Port: closedPort(t)}, "# nothing here\n")

	err := s.run(context.Background())
	if ExitCode(err) != ExitNoCommands {
		t.Fatalf("expected exit code %d, got %d (%v)", ExitNoCommands, ExitCode(err), err)
	}
	if !Reported(err) {
		t.Error("error should be marked as reported")
	}
	assertLogged(t, log.ErrorCalls, "No commands loaded. Exiting.")
}

func TestSession_MissingFile(t *testing.T) {
	s, log := newTestSession(t, runOptions{Port: closedPort(t), File: "/missing.tpoma"}, "")

	err := s.run(context.Background())
	if ExitCode(err) != ExitNoCommands {
		t.Fatalf("expected exit code %d, got %d (%v)", ExitNoCommands, ExitCode(err), err)
	}
	assertLogged(t, log.ErrorCalls, "File not found: '/missing.tpoma'.")
}

func TestSession_ConnectionRefused(t *testing.T) {
	s, log := newTestSession(t, runOptions{Port: closedPort(t)}, "0|*\n")

	err := s.run(context.Background())
	if ExitCode(err) != ExitConnectionFailure {
		t.Fatalf("expected exit code %d, got %d (%v)", ExitConnectionFailure, ExitCode(err), err)
	}
	assertLogged(t, log.ErrorCalls, "TCP connection could not be established. Exiting.")
	if len(log.SentCalls) != 0 {
		t.Errorf("nothing should be sent, got %q", log.SentCalls)
	}
}

func TestSession_InterruptedDuringDelayedStart(t *testing.T) {
	s, log := newTestSession(t, runOptions{Port: closedPort(t), StartIn: "1h"}, "0|*\n")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	if err := s.run(ctx); err != nil {
		t.Fatalf("interrupt should exit cleanly, got %v", err)
	}
	assertLogged(t, log.ErrorCalls, "Program interrupted by user.")
	if len(log.WaitingCalls) != 1 {
		t.Errorf("expected a scheduled start message, got %q", log.WaitingCalls)
	}
}

func TestSession_RecordsTranscript(t *testing.T) {
	host, port := startEchoServer(t)
	db := filepath.Join(t.TempDir(), "transcript.db")
	s, _ := newTestSession(t, runOptions{Host: host, Port: port, Record: db}, "0|*\n0|?a\n")

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := recorder.Open(db)
	if err != nil {
		t.Fatalf("failed to reopen transcript: %v", err)
	}
	defer rec.Close()

	sessions, err := rec.Sessions()
	if err != nil || len(sessions) != 1 {
		t.Fatalf("expected one session, got %v (%v)", sessions, err)
	}
	if sessions[0].Events != 4 || sessions[0].EndedAt.IsZero() {
		t.Errorf("unexpected session summary: %+v", sessions[0])
	}

	var out bytes.Buffer
	if err := printEvents(&out, rec, sessions[0].ID); err != nil {
		t.Fatalf("printEvents failed: %v", err)
	}
	assertContains(t, out.String(), ">>  *␊␀")
	assertContains(t, out.String(), "<<  OK ?a␊")
	assertContains(t, out.String(), "4 events")

	out.Reset()
	if err := printSessions(&out, rec); err != nil {
		t.Fatalf("printSessions failed: %v", err)
	}
	assertContains(t, out.String(), sessions[0].ID)
	assertContains(t, out.String(), "complete")
}

func TestSession_InvalidProxy(t *testing.T) {
	s, _ := newTestSession(t, runOptions{Port: closedPort(t), Proxy: "http://proxy:8080"}, "0|*\n")

	err := s.run(context.Background())
	if ExitCode(err) != ExitFailure {
		t.Fatalf("expected exit code %d, got %d (%v)", ExitFailure, ExitCode(err), err)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[time.Duration]string{
		0:                       "0.0",
		1500 * time.Millisecond: "1.5",
		3 * time.Second:         "3.0",
		250 * time.Millisecond:  "0.25",
	}
	for in, want := range tests {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestConsoleOptions(t *testing.T) {
	var buf bytes.Buffer
	if opts := consoleOptions(&buf, false, true); opts.UseColors || !opts.UseTimestamps {
		t.Errorf("buffers never get colors: %+v", opts)
	}
}

func TestNewSessionLogger_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	var buf bytes.Buffer
	log, _, err := newSessionLogger(runOptions{LogFile: path}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Info("hello %s", "world")
	if err := log.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	assertContains(t, buf.String(), "hello world")

	data, err := afero.ReadFile(afero.NewOsFs(), path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	assertContains(t, string(data), `"message":"hello world"`)
}

func TestLogOutput_Set(t *testing.T) {
	var first, second bytes.Buffer
	out := &logOutput{w: &first}
	io.WriteString(out, "a\n")
	if prev := out.Set(&second); prev != &first {
		t.Errorf("Set returned %v, want the previous writer", prev)
	}
	io.WriteString(out, "b\n")
	if first.String() != "a\n" || second.String() != "b\n" {
		t.Errorf("writes went to the wrong writer: first=%q second=%q", first.String(), second.String())
	}
}

func TestSession_ProgressLogsGoThroughBar(t *testing.T) {
	host, port := startEchoServer(t)
	s, _ := newTestSession(t, runOptions{Host: host, Port: port, Progress: true}, "0|*\n0.02|?a\n")

	var buf bytes.Buffer
	s.out = &buf
	s.logOut = &logOutput{w: &buf}
	s.log = logger.NewConsoleLogger(s.logOut, logger.Options{})

	if err := s.run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.logOut.w != io.Writer(&buf) {
		t.Errorf("log output was not restored after the bar finished")
	}
	out := buf.String()
	assertContains(t, out, "Session completed.")
	assertContains(t, out, "OK ?a")
	if strings.Index(out, "Session completed.") < strings.Index(out, "OK ?a") {
		t.Errorf("log lines are out of order:\n%s", out)
	}
}

func assertLogged(t *testing.T, calls []string, want string) {
	t.Helper()
	for _, c := range calls {
		if c == want {
			return
		}
	}
	t.Errorf("expected %q to be logged, got %q", want, calls)
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}
