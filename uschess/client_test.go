package uschess

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchMemberFromAPI(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/members/12345678" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "12345678",
			"firstName": "Alice",
			"lastName": "Example",
			"ratings": [
				{"rating": 1815, "ratingSystem": "R"},
				{"rating": 1780, "ratingSystem": "Q"},
				{"rating": 0, "ratingSystem": "B"}
			],
			"expirationDate": "2027-06-30"
		}`)
	}))
	defer api.Close()

	client := NewClient(
		WithBaseURLs(api.URL, "http://unused.invalid"),
		WithHTTPClient(api.Client()),
	)

	member, err := client.FetchMember(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if member.Name != "Alice Example" {
		t.Errorf("name = %q", member.Name)
	}
	if member.RegRating == nil || *member.RegRating != 1815 {
		t.Errorf("regular rating = %v", member.RegRating)
	}
	if member.BlitzRating != nil {
		t.Errorf("zero rating should stay nil, got %d", *member.BlitzRating)
	}
	if member.Expiration == nil {
		t.Error("expiration missing")
	}
}

func TestFetchMemberNotFound(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer api.Close()

	client := NewClient(
		WithBaseURLs(api.URL, "http://unused.invalid"),
		WithHTTPClient(api.Client()),
	)

	// A 404 from the API means the member does not exist; the MSA
	// fallback must not fire.
	if _, err := client.FetchMember(context.Background(), "00000000"); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestFetchMemberFallsBackToMSA(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer api.Close()

	msa := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, msaPage)
	}))
	defer msa.Close()

	client := NewClient(
		WithBaseURLs(api.URL, msa.URL),
		WithHTTPClient(http.DefaultClient),
	)

	member, err := client.FetchMember(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("fallback fetch failed: %v", err)
	}
	if member.Name != "ALICE EXAMPLE" {
		t.Errorf("name = %q", member.Name)
	}
	if member.RegRating == nil || *member.RegRating != 1815 {
		t.Errorf("regular rating = %v", member.RegRating)
	}
}

func TestLookupReturnsRegularRating(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","firstName":"Bob","lastName":"Quick","ratings":[{"rating":1200,"ratingSystem":"Q"}]}`)
	}))
	defer api.Close()

	client := NewClient(
		WithBaseURLs(api.URL, "http://unused.invalid"),
		WithHTTPClient(api.Client()),
	)

	rating, expiration, err := client.Lookup(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if rating != nil {
		t.Errorf("quick-only member has no regular rating, got %d", *rating)
	}
	if expiration != nil {
		t.Errorf("no expiration in payload, got %v", expiration)
	}
}
