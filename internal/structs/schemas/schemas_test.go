package schemas

import (
	"reflect"
	"testing"
	"time"

	"github.com/dball/fieldstate/internal/attrset"
	"github.com/dball/fieldstate/internal/structs/models"
	"github.com/dball/fieldstate/internal/sys"
	. "github.com/dball/fieldstate/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSimple(t *testing.T) {
	type Person struct {
		ID    uint64    `attr:"id,primary"`
		Name  string    `attr:"name"`
		Title *string   `attr:"title"`
		Born  time.Time `attr:"born"`
		Notes string
	}
	var p *Person

	actual, err := Analyze(models.BuildCachingAnalyzer(), reflect.TypeOf(p).Elem())
	assert.NoError(t, err)
	expected := []attrset.TypePair{
		{Name: "id", Type: sys.Int},
		{Name: "name", Type: sys.String},
		{Name: "title", Type: sys.String},
		{Name: "born", Type: sys.Inst},
	}
	assert.Equal(t, expected, actual)
}

func TestAnalyzeInvalid(t *testing.T) {
	_, err := Analyze(models.NewAnalyzer(), reflect.TypeOf([]int{}))
	assert.ErrorIs(t, err, Error{Code: "models.notStruct"})
}
