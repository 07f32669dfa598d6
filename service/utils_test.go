package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStringSet(t *testing.T) {
	ss := NewStringSet("a", "b", "b")
	if len(ss) != 2 {
		t.Errorf("expected 2 elements, got %d", len(ss))
	}
	if !ss.Exists("a") || !ss.Exists("b") {
		t.Error("expected a and b in the set")
	}
	if ss.Exists("c") {
		t.Error("unexpected c in the set")
	}
	ss.Push("c")
	if !ss.Exists("c") {
		t.Error("expected c in the set")
	}
}

func TestGetBodyRetryReq(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "payload")
	}))
	defer server.Close()

	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	body, err := GetBodyRetryReq(req, 1)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "payload" {
		t.Errorf("expected payload, got %s", body)
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
}

func TestGetBodyRetryReqPermanent(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer server.Close()

	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GetBodyRetryReq(req, 3); err == nil {
		t.Error("expected an error for status 404")
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}
