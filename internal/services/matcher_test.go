package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/leaf-procure/api/internal/domain"
)

func newTestMatcher(t *testing.T, catalog CatalogReader) AlternativeService {
	t.Helper()
	svc, err := NewAlternativeService(AlternativeServiceDeps{Catalog: catalog})
	if err != nil {
		t.Fatalf("NewAlternativeService returned error: %v", err)
	}
	return svc
}

func TestNewAlternativeServiceRequiresCatalog(t *testing.T) {
	if _, err := NewAlternativeService(AlternativeServiceDeps{}); err == nil {
		t.Fatalf("expected error when catalog reader missing")
	}
}

func TestFindAlternativesMatchesCatalogByKeyword(t *testing.T) {
	svc := newTestMatcher(t, fixtureCatalog())

	results, err := svc.FindAlternatives(context.Background(), []LineItem{
		{Description: "office paper", Quantity: 10, Unit: "ream"},
	})
	if err != nil {
		t.Fatalf("FindAlternatives returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	result := results[0]
	if result.Category != domain.CategoryOfficeSupplies {
		t.Fatalf("unexpected category %s", result.Category)
	}
	// Only the recycled paper passes the sustainability filter; the
	// conventional paper and the pens do not.
	if len(result.Alternatives) != 1 {
		t.Fatalf("expected 1 alternative, got %d", len(result.Alternatives))
	}

	alt := result.Alternatives[0]
	if alt.Product.SKU != "PAPER-RCY-80" {
		t.Fatalf("unexpected alternative %s", alt.Product.SKU)
	}
	if alt.PriceDelta.Absolute != "0.45" || alt.PriceDelta.Percentage != "10.0%" || alt.PriceDelta.Improved {
		t.Fatalf("unexpected price delta %+v", alt.PriceDelta)
	}
	if alt.CO2eDelta.Absolute != "-0.70" || alt.CO2eDelta.Percentage != "-38.9%" || !alt.CO2eDelta.Improved {
		t.Fatalf("unexpected co2e delta %+v", alt.CO2eDelta)
	}
}

func TestFindAlternativesNarrowsByLeadingWord(t *testing.T) {
	catalog := fixtureCatalog()
	svc := newTestMatcher(t, catalog)

	results, err := svc.FindAlternatives(context.Background(), []LineItem{
		{Description: "towel refills 2 ply", Quantity: 4, Unit: "case"},
	})
	if err != nil {
		t.Fatalf("FindAlternatives returned error: %v", err)
	}

	result := results[0]
	if result.Category != domain.CategoryJanitorial {
		t.Fatalf("unexpected category %s", result.Category)
	}
	if len(result.Alternatives) != 1 || result.Alternatives[0].Product.SKU != "TOWEL-RCY-2P" {
		t.Fatalf("expected towel narrowing, got %+v", result.Alternatives)
	}
	// No TOWEL-STD-2P in the catalog, so deltas stay neutral.
	if result.Alternatives[0].PriceDelta != (domain.Delta{Absolute: "0.00", Percentage: "0.0%", Improved: false}) {
		t.Fatalf("expected zero price delta, got %+v", result.Alternatives[0].PriceDelta)
	}
}

func TestFindAlternativesSynthesizesBucketProducts(t *testing.T) {
	svc := newTestMatcher(t, fixtureCatalog())

	results, err := svc.FindAlternatives(context.Background(), []LineItem{
		{Description: "name badge lanyards", Quantity: 25, Unit: "units"},
	})
	if err != nil {
		t.Fatalf("FindAlternatives returned error: %v", err)
	}

	result := results[0]
	if len(result.Alternatives) != 2 {
		t.Fatalf("expected 2 synthetic alternatives, got %d", len(result.Alternatives))
	}
	if result.Alternatives[0].Product.SKU != "BADGE-STD-PLASTIC" || result.Alternatives[1].Product.SKU != "BADGE-ECO-BAMBOO" {
		t.Fatalf("unexpected synthetic SKUs %+v", result.Alternatives)
	}
	for _, alt := range result.Alternatives {
		if !alt.Product.Synthetic {
			t.Fatalf("expected synthetic product %s", alt.Product.SKU)
		}
		if alt.PriceDelta.Absolute != "0.00" || alt.CO2eDelta.Absolute != "0.00" {
			t.Fatalf("expected zero deltas for synthetic products, got %+v", alt)
		}
	}
}

func TestFindAlternativesGenericFallbackUsesDescription(t *testing.T) {
	svc := newTestMatcher(t, fixtureCatalog())

	results, err := svc.FindAlternatives(context.Background(), []LineItem{
		{Description: "stapler refills", Quantity: 5, Unit: "box"},
	})
	if err != nil {
		t.Fatalf("FindAlternatives returned error: %v", err)
	}

	result := results[0]
	if len(result.Alternatives) != 3 {
		t.Fatalf("expected 3 generic alternatives, got %d", len(result.Alternatives))
	}
	names := []string{
		"stapler refills standard",
		"stapler refills partial recycled",
		"stapler refills high recycled",
	}
	for i, alt := range result.Alternatives {
		if alt.Product.Name != names[i] {
			t.Fatalf("unexpected generic name %q", alt.Product.Name)
		}
	}
}

func TestFindAlternativesRejectsInvalidItems(t *testing.T) {
	svc := newTestMatcher(t, fixtureCatalog())

	_, err := svc.FindAlternatives(context.Background(), []LineItem{{Description: "", Quantity: 1}})
	if !errors.Is(err, ErrAlternativesInvalidInput) {
		t.Fatalf("expected ErrAlternativesInvalidInput, got %v", err)
	}

	_, err = svc.FindAlternatives(context.Background(), []LineItem{{Description: "paper", Quantity: 0}})
	if !errors.Is(err, ErrAlternativesInvalidInput) {
		t.Fatalf("expected ErrAlternativesInvalidInput, got %v", err)
	}
}
