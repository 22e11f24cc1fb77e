package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/priceguess/internal/game"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`[
		{"id":"a","name":" Mug ","image":"mug.jpg","price":12.5},
		{"name":"Lamp","image":"lamp.jpg","price":"3.456"}
	]`))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	mug := c.Product(0)
	assert.Equal(t, "a", mug.ID)
	assert.Equal(t, "Mug", mug.Name)
	assert.Equal(t, "mug.jpg", mug.ImageRef)
	assert.Equal(t, "12.50", mug.Price.StringFixed(2))

	lamp := c.Product(1)
	assert.Equal(t, "2", lamp.ID, "missing id falls back to position")
	assert.Equal(t, "3.46", lamp.Price.StringFixed(2))
}

func TestParseRejects(t *testing.T) {
	tests := map[string]struct {
		doc     string
		wantErr error
	}{
		"empty":          {doc: `[]`, wantErr: ErrEmpty},
		"negative price": {doc: `[{"id":"a","name":"A","price":-1}]`, wantErr: ErrInvalidProduct},
		"no name":        {doc: `[{"id":"a","name":"  ","price":1}]`, wantErr: ErrInvalidProduct},
		"duplicate id":   {doc: `[{"id":"a","name":"A","price":1},{"id":"a","name":"B","price":2}]`, wantErr: ErrInvalidProduct},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)
	for i := 0; i < c.Len(); i++ {
		p := c.Product(i)
		assert.NotEmpty(t, p.Name)
		assert.False(t, p.Price.IsNegative())
		assert.True(t, p.Price.Equal(p.Price.Round(2)))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","name":"X","image":"x.png","price":1}]`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestNewDoesNotAliasInput(t *testing.T) {
	in := []game.Product{{ID: "a", Name: "A", Price: decimal.NewFromInt(1)}}
	c, err := New(in)
	require.NoError(t, err)
	in[0].Name = "changed"
	assert.Equal(t, "A", c.Product(0).Name)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "data", "catalog.db")

	seed, err := Parse([]byte(`[
		{"id":"a","name":"A","image":"a.jpg","price":"19.99"},
		{"id":"b","name":"B","image":"b.jpg","price":"0.5"}
	]`))
	require.NoError(t, err)

	c, err := LoadSQLite(ctx, dsn, seed)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "a", c.Product(0).ID)
	assert.Equal(t, "19.99", c.Product(0).Price.StringFixed(2))
	assert.Equal(t, "0.50", c.Product(1).Price.StringFixed(2))

	// Reopening applies no migration twice and does not reseed.
	other, err := Parse([]byte(`[{"id":"z","name":"Z","price":1}]`))
	require.NoError(t, err)
	c, err = LoadSQLite(ctx, dsn, other)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "b", c.Product(1).ID)
}

func TestSQLiteEmptyWithoutSeed(t *testing.T) {
	_, err := LoadSQLite(context.Background(), filepath.Join(t.TempDir(), "empty.db"), nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestOpenDBAppliesConnectionOptions(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(ctx, filepath.Join(t.TempDir(), "nested", "opts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
