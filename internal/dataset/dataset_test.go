package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/austindbirch/supportflow/internal/ticket"
)

const validHeader = "id,channel,customer_name,subject,fullMessage,sentiment_name\n"

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		wantMissing []string
	}{
		{
			name:    "all required columns",
			columns: RequiredColumns,
		},
		{
			name:    "extra columns are ignored",
			columns: []string{"priority", "id", "channel", "customer_name", "subject", "fullMessage", "sentiment_name", "agent"},
		},
		{
			name:        "missing subject",
			columns:     []string{"id", "channel", "customer_name", "fullMessage", "sentiment_name"},
			wantMissing: []string{"subject"},
		},
		{
			name:        "missing names reported in required order",
			columns:     []string{"sentiment_name", "customer_name"},
			wantMissing: []string{"id", "channel", "subject", "fullMessage"},
		},
		{
			name:        "column names are case sensitive",
			columns:     []string{"id", "channel", "customer_name", "subject", "fullmessage", "sentiment_name"},
			wantMissing: []string{"fullMessage"},
		},
		{
			name:        "empty header",
			columns:     nil,
			wantMissing: RequiredColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Dataset{Columns: tt.columns})
			if tt.wantMissing == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, ErrSchema) {
				t.Fatalf("Validate() error = %v, want ErrSchema", err)
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("Validate() error type = %T, want *SchemaError", err)
			}
			if !reflect.DeepEqual(se.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", se.Missing, tt.wantMissing)
			}
			for _, m := range tt.wantMissing {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("Error() = %q, want it to name %q", err.Error(), m)
				}
			}
		})
	}
}

func TestValidate_NilDataset(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrSchema) {
		t.Errorf("Validate(nil) error = %v, want ErrSchema", err)
	}
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantColumns []string
		wantRows    int
	}{
		{
			name:        "header and rows",
			input:       validHeader + "1,email,Ana,Refund,Where is it?,negative\n2,chat,Bo,Hi,Hello,neutral\n",
			wantColumns: RequiredColumns,
			wantRows:    2,
		},
		{
			name:        "byte order mark stripped from first column",
			input:       "\ufeff" + validHeader + "1,email,Ana,Refund,Body,negative\n",
			wantColumns: RequiredColumns,
			wantRows:    1,
		},
		{
			name:        "header only",
			input:       validHeader,
			wantColumns: RequiredColumns,
			wantRows:    0,
		},
		{
			name:     "empty input",
			input:    "",
			wantRows: 0,
		},
		{
			name:        "short rows tolerated",
			input:       validHeader + "1,email\n",
			wantColumns: RequiredColumns,
			wantRows:    1,
		},
		{
			name:        "quoted multi-line message",
			input:       validHeader + "1,email,Ana,Refund,\"line one\nline two\",negative\n",
			wantColumns: RequiredColumns,
			wantRows:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}
			if !reflect.DeepEqual(ds.Columns, tt.wantColumns) {
				t.Errorf("Columns = %v, want %v", ds.Columns, tt.wantColumns)
			}
			if ds.Len() != tt.wantRows {
				t.Errorf("Len() = %d, want %d", ds.Len(), tt.wantRows)
			}
		})
	}
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(validHeader + "1,\"unterminated\n"))
	if err == nil {
		t.Fatal("ReadCSV() error = nil, want parse error")
	}
}

func TestReadCSV_EmptyCellsStayEmpty(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(validHeader + "1,email,,Refund,Body,\n2,chat\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	recs := ds.Records()
	if len(recs) != 2 {
		t.Fatalf("Records() = %d, want 2", len(recs))
	}
	if p := ticket.Build(recs[0]); p.Customer.Name != "" || p.AIAnalysis.Sentiment != "" {
		t.Errorf("payload 1 = %+v, want empty customer and sentiment", p)
	}
	if p := ticket.Build(recs[1]); p.Content.Subject != "" || p.Content.Body != "" || p.SourceChannel != "chat" {
		t.Errorf("payload 2 = %+v, want padded cells empty", p)
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.csv")
	if err := os.WriteFile(path, []byte(validHeader+"7,email,Ana,Refund,Body,negative\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadCSVFile(path)
	if err != nil {
		t.Fatalf("LoadCSVFile() error = %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ds.Len())
	}

	if _, err := LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("LoadCSVFile(missing) error = nil, want error")
	}
}

func TestDataset_Records(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"sentiment_name", "id", "extra", "channel", "customer_name", "subject", "fullMessage"},
		Rows: [][]any{
			{"negative", "1", "x", "email", "Ana", "Refund", "Body one"},
			{"neutral", int64(2), "y", "chat"},
		},
	}

	got := ds.Records()
	want := []ticket.Record{
		{ID: "1", Channel: "email", CustomerName: "Ana", Subject: "Refund", FullMessage: "Body one", SentimentName: "negative"},
		{ID: int64(2), Channel: "chat", SentimentName: "neutral"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Records() = %+v, want %+v", got, want)
	}
}

func TestDataset_RecordsEmpty(t *testing.T) {
	var nilDS *Dataset
	if got := nilDS.Records(); got != nil {
		t.Errorf("nil Records() = %v, want nil", got)
	}
	if got := (&Dataset{Columns: RequiredColumns}).Records(); got != nil {
		t.Errorf("header-only Records() = %v, want nil", got)
	}
}

func TestDataset_Stats(t *testing.T) {
	tests := []struct {
		name string
		ds   *Dataset
		want Stats
	}{
		{
			name: "empty",
			ds:   &Dataset{Columns: RequiredColumns},
			want: Stats{},
		},
		{
			name: "distinct channels and customers",
			ds: &Dataset{
				Columns: RequiredColumns,
				Rows: [][]any{
					{"1", "email", "Ana", "s", "b", "negative"},
					{"2", "email", "Bo", "s", "b", "neutral"},
					{"3", "chat", "Ana", "s", "b", "positive"},
				},
			},
			want: Stats{Total: 3, UniqueChannels: 2, UniqueCustomers: 2},
		},
		{
			name: "missing values not counted",
			ds: &Dataset{
				Columns: RequiredColumns,
				Rows: [][]any{
					{"1", nil, "", "s", "b", "negative"},
					{"2", "phone", nil, "s", "b", "neutral"},
				},
			},
			want: Stats{Total: 2, UniqueChannels: 1, UniqueCustomers: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ds.Stats(); got != tt.want {
				t.Errorf("Stats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
