package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// DefaultTags are always offered, whatever the stored tag list says.
var DefaultTags = []string{"Official", "Food", "Travel", "Personal", "Trivandrum", "Muvattupuzha", "Delhi"}

// DefaultOfficialTags unlock reimbursement attachments until the user
// configures their own.
var DefaultOfficialTags = []string{"Official"}

// Trips returns the configured trips in insertion order.
func (r *Repository) Trips(ctx context.Context) ([]domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trips(ctx)
}

func (r *Repository) trips(ctx context.Context) ([]domain.Trip, error) {
	trips := []domain.Trip{}
	if _, err := r.getJSON(ctx, KeyTrips, &trips); err != nil {
		return nil, fmt.Errorf("Repository.Trips: %w", err)
	}
	return trips, nil
}

// AddTrip validates and stores a trip, assigning an ID when it has none.
// Existing transactions are not retagged.
func (r *Repository) AddTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	trip.Name = strings.TrimSpace(trip.Name)
	if err := trip.Validate(); err != nil {
		return domain.Trip{}, fmt.Errorf("Repository.AddTrip: %w", err)
	}
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	trips, err := r.trips(ctx)
	if err != nil {
		return domain.Trip{}, err
	}
	trips = append(trips, trip)
	if err := r.putJSON(ctx, KeyTrips, trips); err != nil {
		return domain.Trip{}, fmt.Errorf("Repository.AddTrip: %w", err)
	}
	return trip, nil
}

// RemoveTrip deletes a trip and reports whether it existed.
func (r *Repository) RemoveTrip(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trips, err := r.trips(ctx)
	if err != nil {
		return false, err
	}
	kept := trips[:0]
	for _, t := range trips {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(trips) {
		return false, nil
	}
	if err := r.putJSON(ctx, KeyTrips, kept); err != nil {
		return false, fmt.Errorf("Repository.RemoveTrip: %w", err)
	}
	return true, nil
}

// Tags returns the saved tags merged with DefaultTags, sorted.
func (r *Repository) Tags(ctx context.Context) ([]string, error) {
	var stored []string
	if _, err := r.getJSON(ctx, KeyTags, &stored); err != nil {
		return nil, fmt.Errorf("Repository.Tags: %w", err)
	}
	return union(DefaultTags, stored), nil
}

// SaveTags replaces the saved tag list.
func (r *Repository) SaveTags(ctx context.Context, tags []string) error {
	if err := r.putJSON(ctx, KeyTags, union(nil, tags)); err != nil {
		return fmt.Errorf("Repository.SaveTags: %w", err)
	}
	return nil
}

// AllTags returns every tag in use on a transaction plus the saved tags,
// sorted.
func (r *Repository) AllTags(ctx context.Context) ([]string, error) {
	saved, err := r.Tags(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := r.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	var used []string
	for _, tx := range txns {
		used = append(used, tx.Tags...)
	}
	return union(saved, used), nil
}

// OfficialTags returns the tags that mark a transaction as reimbursable.
func (r *Repository) OfficialTags(ctx context.Context) ([]string, error) {
	var tags []string
	found, err := r.getJSON(ctx, KeyOfficialTags, &tags)
	if err != nil {
		return nil, fmt.Errorf("Repository.OfficialTags: %w", err)
	}
	if !found {
		return append([]string(nil), DefaultOfficialTags...), nil
	}
	return tags, nil
}

// SaveOfficialTags replaces the official tag list.
func (r *Repository) SaveOfficialTags(ctx context.Context, tags []string) error {
	if err := r.putJSON(ctx, KeyOfficialTags, tags); err != nil {
		return fmt.Errorf("Repository.SaveOfficialTags: %w", err)
	}
	return nil
}

// IsOfficial reports whether tx carries any of the official tags.
func IsOfficial(tx domain.Transaction, official []string) bool {
	for _, tag := range official {
		if tx.HasTag(tag) {
			return true
		}
	}
	return false
}

// RequireOfficial fails with ErrNotOfficial unless tx carries one of the
// stored official tags. Only official transactions take attachments.
func (r *Repository) RequireOfficial(ctx context.Context, tx domain.Transaction) error {
	official, err := r.OfficialTags(ctx)
	if err != nil {
		return fmt.Errorf("Repository.RequireOfficial: %w", err)
	}
	if !IsOfficial(tx, official) {
		return fmt.Errorf("Repository.RequireOfficial: %s: %w", tx.ID, ErrNotOfficial)
	}
	return nil
}

// Profile returns the stored profile, or nil when none was saved.
func (r *Repository) Profile(ctx context.Context) (*domain.UserProfile, error) {
	var p domain.UserProfile
	found, err := r.getJSON(ctx, KeyProfile, &p)
	if err != nil {
		return nil, fmt.Errorf("Repository.Profile: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// SaveProfile replaces the stored profile.
func (r *Repository) SaveProfile(ctx context.Context, p domain.UserProfile) error {
	if err := r.putJSON(ctx, KeyProfile, p); err != nil {
		return fmt.Errorf("Repository.SaveProfile: %w", err)
	}
	return nil
}

// SheetsConfig returns the stored spreadsheet credentials, or nil.
func (r *Repository) SheetsConfig(ctx context.Context) (*domain.SheetsConfig, error) {
	var c domain.SheetsConfig
	found, err := r.getJSON(ctx, KeySheetsConfig, &c)
	if err != nil {
		return nil, fmt.Errorf("Repository.SheetsConfig: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

// SaveSheetsConfig replaces the stored spreadsheet credentials.
func (r *Repository) SaveSheetsConfig(ctx context.Context, c domain.SheetsConfig) error {
	if err := r.putJSON(ctx, KeySheetsConfig, c); err != nil {
		return fmt.Errorf("Repository.SaveSheetsConfig: %w", err)
	}
	return nil
}

func union(a, b []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
