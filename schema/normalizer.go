package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jitsucom/sheetloader/errorj"
)

const (
	//SimpleStyle trims, replaces spaces and hyphens with underscores and lowercases
	SimpleStyle = "simple"
	//SnakeStyle additionally splits camelCase words (GuestName -> guest_name)
	SnakeStyle = "snake"

	//FailOnCollision aborts normalization if two column names become equal
	FailOnCollision = "fail"
	//SuffixOnCollision keeps the first column name and adds _2, _3, .. to the following ones
	SuffixOnCollision = "suffix"
)

//Normalizer rewrites column names into warehouse-safe identifiers
type Normalizer struct {
	style       string
	onCollision string

	separatorsReplacer *strings.Replacer
}

//NewNormalizer returns configured Normalizer or error if style or collision policy is unknown
func NewNormalizer(style, onCollision string) (*Normalizer, error) {
	if style == "" {
		style = SimpleStyle
	}
	if onCollision == "" {
		onCollision = FailOnCollision
	}

	if style != SimpleStyle && style != SnakeStyle {
		return nil, fmt.Errorf("Unknown normalization style: %s. Available styles: [%s, %s]", style, SimpleStyle, SnakeStyle)
	}
	if onCollision != FailOnCollision && onCollision != SuffixOnCollision {
		return nil, fmt.Errorf("Unknown collision policy: %s. Available policies: [%s, %s]", onCollision, FailOnCollision, SuffixOnCollision)
	}

	return &Normalizer{
		style:       style,
		onCollision: onCollision,
		separatorsReplacer: strings.NewReplacer(
			" ", "_",
			"-", "_",
		),
	}, nil
}

//Reformat returns normalized column name
//Reformat(Reformat(x)) == Reformat(x)
func (n *Normalizer) Reformat(name string) string {
	trimmed := strings.TrimSpace(name)
	if n.style == SnakeStyle {
		return strcase.ToSnake(trimmed)
	}

	return strings.ToLower(n.separatorsReplacer.Replace(trimmed))
}

//Apply renames all dataset columns
//returns errorj.NormalizationError if names collide and the policy is FailOnCollision
func (n *Normalizer) Apply(dataset *Dataset) error {
	normalized := make([]string, len(dataset.Columns))
	originalsByName := map[string][]string{}
	for i, column := range dataset.Columns {
		normalized[i] = n.Reformat(column.Name)
		if normalized[i] == "" {
			normalized[i] = "column_" + strconv.Itoa(i+1)
		}
		originalsByName[normalized[i]] = append(originalsByName[normalized[i]], column.OriginalName)
	}

	var collisions []string
	for name, originals := range originalsByName {
		if len(originals) > 1 {
			collisions = append(collisions, fmt.Sprintf("%s <- %q", name, originals))
		}
	}

	if len(collisions) > 0 && n.onCollision == FailOnCollision {
		sort.Strings(collisions)
		return errorj.NormalizationError.New("column names collide after normalization: %s", strings.Join(collisions, "; ")).
			WithProperty(errorj.DBObjects, collisions)
	}

	assigned := make(map[string]bool, len(normalized))
	for i, name := range normalized {
		if assigned[name] {
			name = n.nextFreeName(name, assigned, originalsByName)
		}
		assigned[name] = true
		dataset.Columns[i].Name = name
	}

	return nil
}

//nextFreeName returns name_N with the smallest N >= 2 which is neither assigned yet
//nor a natural (normalized) name of any column
func (n *Normalizer) nextFreeName(name string, assigned map[string]bool, natural map[string][]string) string {
	for i := 2; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if _, taken := natural[candidate]; taken {
			continue
		}
		if !assigned[candidate] {
			return candidate
		}
	}
}
