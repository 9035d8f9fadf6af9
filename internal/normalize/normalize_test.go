package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agurod42/outfox-health/internal/model"
)

func TestDrgCode(t *testing.T) {
	cases := []struct {
		code, desc, want string
		wantErr          bool
	}{
		{"470", "", "470", false},
		{"39 ", "", "039", false},
		{"470 - MAJOR JOINT", "", "470", false},
		{"", "470 - MAJOR JOINT REPLACEMENT", "470", false},
		{"", "  023 CRANIOTOMY", "023", false},
		{"", "CRANIOTOMY WITH MCC", "", true},
		{"", "4701 - NOT A CODE", "", true},
		{"ABC", "470 - MAJOR", "", true},
	}
	for _, c := range cases {
		got, err := DrgCode(c.code, c.desc)
		if c.wantErr {
			if !errors.Is(err, ErrNoDrgCode) {
				t.Errorf("DrgCode(%q,%q): expected ErrNoDrgCode, got %q, %v", c.code, c.desc, got, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("DrgCode(%q,%q) = %q, %v; want %q", c.code, c.desc, got, err, c.want)
		}
	}
}

func TestZip5(t *testing.T) {
	cases := map[string]string{
		"10001":      "10001",
		"2134":       "02134",
		"10001-1234": "10001",
		"":           "00000",
		" 36301 ":    "36301",
	}
	for in, want := range cases {
		if got := Zip5(in); got != want {
			t.Errorf("Zip5(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCCN(t *testing.T) {
	if got := CCN("10001"); got != "010001" {
		t.Errorf("CCN pad: got %q", got)
	}
	if got := CCN("n/a"); got != "" {
		t.Errorf("CCN no digits: got %q", got)
	}
}

func TestMoney(t *testing.T) {
	d, err := Money("$158,541.645")
	if err != nil {
		t.Fatalf("Money: %v", err)
	}
	if d.StringFixed(2) != "158541.65" {
		t.Errorf("Money rounding: got %s", d.StringFixed(2))
	}

	d, err = Money("  ")
	if d != nil || err != nil {
		t.Errorf("empty money: got %v, %v", d, err)
	}

	if _, err := Money("twelve"); !errors.Is(err, ErrBadAmount) {
		t.Errorf("expected ErrBadAmount for non-numeric money, got %v", err)
	}
}

func TestToNormalizedRow(t *testing.T) {
	rating := int32(8)
	row := &model.PriceRow{
		ProviderID:        "10001",
		ProviderName:      "  Southeast   Health Medical Center ",
		City:              "Dothan",
		State:             "al",
		Zip:               "36301",
		DrgDescription:    "023 - CRANIOTOMY W MCC",
		TotalDischarges:   "1,025",
		AvgCoveredCharges: "$158541.64",
		AvgTotalPayments:  "",
		Rating:            &rating,
	}
	n, err := ToNormalizedRow(row)
	if err != nil {
		t.Fatalf("ToNormalizedRow: %v", err)
	}
	if n.Provider.ProviderID != "010001" {
		t.Errorf("ProviderID: got %q", n.Provider.ProviderID)
	}
	if n.Provider.Name != "Southeast Health Medical Center" {
		t.Errorf("Name: got %q", n.Provider.Name)
	}
	if n.Provider.State == nil || *n.Provider.State != "AL" {
		t.Errorf("State: got %v", n.Provider.State)
	}
	if n.Price.DrgCode != "023" {
		t.Errorf("DrgCode: got %q", n.Price.DrgCode)
	}
	if n.Price.TotalDischarges == nil || *n.Price.TotalDischarges != 1025 {
		t.Errorf("TotalDischarges: got %v", n.Price.TotalDischarges)
	}
	if n.Price.AvgCoveredCharges == nil || n.Price.AvgCoveredCharges.StringFixed(2) != "158541.64" {
		t.Errorf("AvgCoveredCharges: got %v", n.Price.AvgCoveredCharges)
	}
	if n.Price.AvgTotalPayments != nil {
		t.Errorf("AvgTotalPayments should be nil, got %v", n.Price.AvgTotalPayments)
	}
	if n.Rating == nil || n.Rating.Rating != 8 {
		t.Errorf("Rating: got %v", n.Rating)
	}
}

func TestToNormalizedRow_RejectsUnknownDrg(t *testing.T) {
	row := &model.PriceRow{
		ProviderID:     "010001",
		ProviderName:   "X",
		Zip:            "36301",
		DrgDescription: "CRANIOTOMY",
	}
	if _, err := ToNormalizedRow(row); !errors.Is(err, ErrNoDrgCode) {
		t.Fatalf("expected ErrNoDrgCode, got %v", err)
	}
}

func TestToNormalizedRow_RejectsMalformedAmount(t *testing.T) {
	row := &model.PriceRow{
		ProviderID:        "010001",
		ProviderName:      "X",
		Zip:               "36301",
		DrgDescription:    "470 - MAJOR JOINT",
		AvgCoveredCharges: "$12,34O.00",
	}
	_, err := ToNormalizedRow(row)
	if !errors.Is(err, ErrBadAmount) {
		t.Fatalf("expected ErrBadAmount, got %v", err)
	}
	if !strings.Contains(err.Error(), "avg covered charges") {
		t.Errorf("error should name the column: %v", err)
	}

	row.AvgCoveredCharges = " "
	n, err := ToNormalizedRow(row)
	if err != nil {
		t.Fatalf("blank amount should be accepted: %v", err)
	}
	if n.Price.AvgCoveredCharges != nil {
		t.Errorf("blank amount should be nil, got %v", n.Price.AvgCoveredCharges)
	}
}

func TestToNormalizedRow_RatingOutOfRange(t *testing.T) {
	bad := int32(11)
	row := &model.PriceRow{
		ProviderID:     "010001",
		ProviderName:   "X",
		Zip:            "36301",
		DrgDescription: "470 - MAJOR JOINT",
		Rating:         &bad,
	}
	if _, err := ToNormalizedRow(row); err == nil {
		t.Fatal("expected error for rating 11")
	}
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sha, size, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	if sha != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("sha: got %s", sha)
	}
	if size != 3 {
		t.Errorf("size: got %d", size)
	}

	if _, _, err := FileHash(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}
