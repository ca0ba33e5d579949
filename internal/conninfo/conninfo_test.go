package conninfo_test

import (
	"strings"
	"testing"
	"time"

	"AppPulse/internal/conninfo"
)

// openConnection stands in for application code opening a monitored resource.
func openConnection() *conninfo.ConnectionInformations {
	return conninfo.New()
}

func TestStackStartsAtCallerCode(t *testing.T) {
	ci := openConnection()

	frames := ci.OpeningStackTrace()
	if len(frames) == 0 {
		t.Fatal("Expected a captured stack trace")
	}
	first := frames[0].Function
	if strings.HasPrefix(first, "AppPulse/internal/conninfo.") {
		t.Errorf("Top frame still belongs to the capturing package: %s", first)
	}
	if !strings.Contains(first, "openConnection") {
		t.Errorf("Expected top frame to be the direct caller, got %s", first)
	}
}

func TestGoroutineID(t *testing.T) {
	here := conninfo.New().GoroutineID()
	if here <= 0 {
		t.Fatalf("Expected a positive goroutine id, got %d", here)
	}

	idChan := make(chan int64)
	go func() {
		idChan <- conninfo.New().GoroutineID()
	}()
	there := <-idChan
	if there == here {
		t.Errorf("Expected distinct goroutine ids, both were %d", here)
	}
}

func TestOpeningDate(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ci := conninfo.New()
	after := time.Now().Add(time.Second)

	opened := ci.OpeningDate()
	if opened.Before(before) || opened.After(after) {
		t.Errorf("Opening date %v outside expected window [%v, %v]", opened, before, after)
	}
}

func TestString(t *testing.T) {
	s := conninfo.New().String()
	if !strings.HasPrefix(s, "ConnectionInformations[") {
		t.Errorf("Unexpected summary format: %s", s)
	}
	if !strings.Contains(s, "goroutineID=") {
		t.Errorf("Summary should include the goroutine id: %s", s)
	}
}
