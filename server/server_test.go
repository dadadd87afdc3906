package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentledger/memvault/core"
)

const testAddr = "0x1111111111111111111111111111111111111111"

type fakeVault struct {
	latest     map[core.TopicKey]*core.Record
	readErr    error
	storeErr   error
	storeCalls int
	lastKey    core.TopicKey
	lastOwner  core.Address
	lastValue  string
}

func (f *fakeVault) GetLatest(ctx context.Context, owner core.Address, key core.TopicKey) (*core.Record, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.latest[key], nil
}

func (f *fakeVault) GetCount(ctx context.Context, owner core.Address, key core.TopicKey) (uint64, error) {
	return uint64(len(f.latest)), nil
}

func (f *fakeVault) GetAt(ctx context.Context, owner core.Address, key core.TopicKey, index uint64) (*core.Record, error) {
	return f.latest[key], nil
}

func (f *fakeVault) Store(ctx context.Context, owner core.Address, key core.TopicKey, content string) (string, error) {
	f.storeCalls++
	f.lastOwner, f.lastKey, f.lastValue = owner, key, content
	if f.storeErr != nil {
		return "", f.storeErr
	}
	return "0xcafe", nil
}

func newTestServer(v *fakeVault) *httptest.Server {
	s := New(Config{Reader: v, Writer: v, Log: zerolog.Nop()})
	return httptest.NewServer(s.Handler())
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestServiceDescriptor(t *testing.T) {
	srv := newTestServer(&fakeVault{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var desc serviceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	if desc.Name != "memvault" || len(desc.Tools) == 0 {
		t.Errorf("unexpected descriptor: %+v", desc)
	}
}

func TestStoreMemory(t *testing.T) {
	v := &fakeVault{}
	srv := newTestServer(v)
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/store-memory", map[string]string{
		"user_address": testAddr,
		"topic":        "identity_profile",
		"content":      "User's name is Alex",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}
	if body["success"] != true || body["tx_hash"] != "0xcafe" {
		t.Errorf("unexpected body: %v", body)
	}
	if v.lastKey != core.DeriveTopicKey("identity_profile") || v.lastValue != "User's name is Alex" {
		t.Errorf("stored wrong record: key=%s content=%q", v.lastKey.Hex(), v.lastValue)
	}
}

func TestStoreMemoryMissingFieldIs400AndSkipsLedger(t *testing.T) {
	v := &fakeVault{}
	srv := newTestServer(v)
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/store-memory", map[string]string{
		"user_address": testAddr,
		"topic":        "identity_profile",
		// content missing
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["success"] != false || body["error"] == "" {
		t.Errorf("unexpected body: %v", body)
	}
	if v.storeCalls != 0 {
		t.Errorf("ledger touched on validation failure: %d calls", v.storeCalls)
	}
}

func TestStoreMemoryWriteFailureIs500(t *testing.T) {
	v := &fakeVault{storeErr: &core.WriteError{Err: fmt.Errorf("signer down")}}
	srv := newTestServer(v)
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/store-memory", map[string]string{
		"user_address": testAddr,
		"topic":        "goals",
		"content":      "x",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestGetMemory(t *testing.T) {
	key := core.DeriveTopicKey("preferences")
	v := &fakeVault{latest: map[core.TopicKey]*core.Record{
		key: {Timestamp: 1700000000, Writer: core.Address(testAddr), Content: "prefers tea"},
	}}
	srv := newTestServer(v)
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/get-memory", map[string]string{
		"user_address": testAddr,
		"topic":        "preferences",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}
	if body["success"] != true || body["content"] != "prefers tea" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestGetMemoryAbsentTopic(t *testing.T) {
	srv := newTestServer(&fakeVault{})
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/get-memory", map[string]string{
		"user_address": testAddr,
		"topic":        "never_written",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["success"] != false {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestGetMemoryReadErrorIs502(t *testing.T) {
	v := &fakeVault{readErr: &core.ReadError{Op: "getLatestMemory", Err: fmt.Errorf("node down")}}
	srv := newTestServer(v)
	defer srv.Close()

	resp, _ := postJSON(t, srv.URL+"/get-memory", map[string]string{
		"user_address": testAddr,
		"topic":        "preferences",
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := newTestServer(&fakeVault{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestOptionsPreflight(t *testing.T) {
	srv := newTestServer(&fakeVault{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/store-memory", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("CORS header missing")
	}
}
