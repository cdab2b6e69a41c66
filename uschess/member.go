package uschess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// Member holds the subset of a US Chess member profile the roster cares
// about.
type Member struct {
	ID          string
	Name        string
	RegRating   *int // nil = unrated
	QuickRating *int
	BlitzRating *int
	Expiration  *time.Time
}

var ErrMemberNotFound = errors.New("uschess: member not found")

// apiMemberResponse mirrors the ratings API member payload.
type apiMemberResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Ratings   []struct {
		Rating       int    `json:"rating"`
		RatingSystem string `json:"ratingSystem"`
	} `json:"ratings"`
	ExpirationDate string `json:"expirationDate"`
}

// FetchMember retrieves a member profile, preferring the ratings API and
// falling back to scraping the MSA page when the API errors.
func (c *Client) FetchMember(ctx context.Context, memberID string) (*Member, error) {
	member, apiErr := c.fetchFromAPI(ctx, memberID)
	if apiErr == nil {
		return member, nil
	}
	if errors.Is(apiErr, ErrMemberNotFound) {
		return nil, apiErr
	}

	member, msaErr := c.fetchFromMSA(ctx, memberID)
	if msaErr != nil {
		return nil, fmt.Errorf("ratings API failed (%v); MSA fallback: %w", apiErr, msaErr)
	}
	return member, nil
}

// Lookup adapts FetchMember to the roster's rating refresh: it returns
// the regular rating and membership expiration only.
func (c *Client) Lookup(ctx context.Context, memberID string) (*int, *time.Time, error) {
	member, err := c.FetchMember(ctx, memberID)
	if err != nil {
		return nil, nil, err
	}
	return member.RegRating, member.Expiration, nil
}

func (c *Client) fetchFromAPI(ctx context.Context, memberID string) (*Member, error) {
	endpoint := fmt.Sprintf("%s/members/%s", c.apiBase, memberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating profile request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing profile HTTP GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected profile status %d: %s", resp.StatusCode, string(body))
	}

	var data apiMemberResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding profile JSON: %w", err)
	}

	member := &Member{
		ID:   memberID,
		Name: strings.TrimSpace(data.FirstName + " " + data.LastName),
	}
	for _, r := range data.Ratings {
		if r.Rating == 0 {
			continue
		}
		rating := r.Rating
		switch r.RatingSystem {
		case "R":
			member.RegRating = &rating
		case "Q":
			member.QuickRating = &rating
		case "B":
			member.BlitzRating = &rating
		}
	}
	if data.ExpirationDate != "" {
		if exp, err := dateparse.ParseAny(data.ExpirationDate); err == nil {
			member.Expiration = &exp
		}
	}
	return member, nil
}

func (c *Client) fetchFromMSA(ctx context.Context, memberID string) (*Member, error) {
	endpoint := fmt.Sprintf("%s/thin3.php?%s", c.msaBase, memberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating MSA request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing MSA HTTP GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected MSA status %d", resp.StatusCode)
	}
	return parseMSAPage(memberID, resp.Body)
}

// parseMSAPage extracts name, ratings, and membership expiration from the
// MSA thin member page. The page is a label/value table; rating cells may
// carry a floor suffix or provisional game count which is stripped.
func parseMSAPage(memberID string, body io.Reader) (*Member, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing MSA HTML: %w", err)
	}

	member := &Member{ID: memberID}

	doc.Find("b").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		prefix := memberID + ":"
		if strings.HasPrefix(text, prefix) {
			member.Name = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			return false
		}
		return true
	})
	if member.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		switch {
		case strings.HasPrefix(label, "Regular Rating"):
			member.RegRating = parseRatingCell(value)
		case strings.HasPrefix(label, "Quick Rating"):
			member.QuickRating = parseRatingCell(value)
		case strings.HasPrefix(label, "Blitz Rating"):
			member.BlitzRating = parseRatingCell(value)
		case strings.HasPrefix(label, "Expiration Dt."):
			if exp, err := dateparse.ParseAny(value); err == nil {
				member.Expiration = &exp
			}
		}
	})

	return member, nil
}

// parseRatingCell turns "1815" or "1815* (Based on 18 games)" into a
// rating, and "Unrated" into nil.
func parseRatingCell(value string) *int {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	digits := strings.TrimRight(fields[0], "*")
	n, err := strconv.Atoi(digits)
	if err != nil || n == 0 {
		return nil
	}
	return &n
}
