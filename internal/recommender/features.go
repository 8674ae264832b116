package recommender

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ausflug/ausflug/pkg/models"
)

// ErrNoFeatures is returned when no feature sub-block could be built
// for the given activity table.
var ErrNoFeatures = errors.New("recommender: no usable features in activity table")

const defaultMaxTerms = 500

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]{2,}`)

// Encoding is the fitted column layout of a feature matrix. Columns are
// ordered text terms, target-group tags, categories, settings, price;
// within each block names are sorted so identical tables always produce
// identical layouts.
type Encoding struct {
	Terms      []string
	IDF        []float64
	Tags       []string
	Categories []string
	Settings   []string
	PriceMin   float64
	PriceMax   float64

	hasPrice bool

	termIndex    map[string]int
	tagIndex     map[string]int
	catIndex     map[string]int
	settingIndex map[string]int
}

// Cols is the total feature dimensionality.
func (e *Encoding) Cols() int {
	n := len(e.Terms) + len(e.Tags) + len(e.Categories) + len(e.Settings)
	if e.hasPrice {
		n++
	}
	return n
}

// FeatureMatrix pairs the numeric matrix with the encoding that
// produced it. Row i corresponds to table row i. Immutable once built.
type FeatureMatrix struct {
	Data        *mat.Dense
	Encoding    *Encoding
	DatasetHash string
}

func (m *FeatureMatrix) Rows() int {
	r, _ := m.Data.Dims()
	return r
}

func (m *FeatureMatrix) Cols() int {
	_, c := m.Data.Dims()
	return c
}

// Extractor builds feature matrices from activity tables.
type Extractor struct {
	maxTerms int
	logger   *logrus.Logger
}

func NewExtractor(maxTerms int, logger *logrus.Logger) *Extractor {
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{maxTerms: maxTerms, logger: logger}
}

// Extract fits the encoding on the given table and returns the
// concatenated feature matrix. Sub-blocks that cannot be built for this
// table are skipped; ErrNoFeatures is returned only when none could be
// built. The result is deterministic for identical input.
func (e *Extractor) Extract(activities []models.Activity) (*FeatureMatrix, error) {
	if len(activities) == 0 {
		return nil, ErrNoFeatures
	}

	enc := &Encoding{}
	e.fitText(enc, activities)
	e.fitTags(enc, activities)
	e.fitCategories(enc, activities)
	e.fitSettings(enc, activities)
	e.fitPrice(enc, activities)

	cols := enc.Cols()
	if cols == 0 {
		return nil, ErrNoFeatures
	}

	data := mat.NewDense(len(activities), cols, nil)
	for i := range activities {
		data.SetRow(i, enc.Vector(&activities[i]))
	}

	e.logger.WithFields(logrus.Fields{
		"rows":       len(activities),
		"cols":       cols,
		"terms":      len(enc.Terms),
		"tags":       len(enc.Tags),
		"categories": len(enc.Categories),
		"settings":   len(enc.Settings),
	}).Debug("Feature matrix built")

	return &FeatureMatrix{
		Data:        data,
		Encoding:    enc,
		DatasetHash: DatasetHash(activities),
	}, nil
}

// Vector encodes a single activity into the fitted column space.
// Values unseen during fitting map to all-zero positions.
func (e *Encoding) Vector(a *models.Activity) []float64 {
	v := make([]float64, e.Cols())
	off := 0

	if len(e.Terms) > 0 {
		tokens := tokenize(a.Description)
		counts := make(map[int]float64)
		for _, t := range tokens {
			if idx, ok := e.termIndex[t]; ok {
				counts[idx]++
			}
		}
		for idx, c := range counts {
			v[off+idx] = c * e.IDF[idx]
		}
		// L2-normalize the text block only.
		if n := floats.Norm(v[off:off+len(e.Terms)], 2); n > 0 {
			floats.Scale(1/n, v[off:off+len(e.Terms)])
		}
		off += len(e.Terms)
	}

	for _, g := range a.TargetGroupList() {
		if idx, ok := e.tagIndex[g]; ok {
			v[off+idx] = 1
		}
	}
	off += len(e.Tags)

	if idx, ok := e.catIndex[categoryOf(a)]; ok {
		v[off+idx] = 1
	}
	off += len(e.Categories)

	if idx, ok := e.settingIndex[settingOf(a)]; ok {
		v[off+idx] = 1
	}
	off += len(e.Settings)

	if e.hasPrice {
		v[off] = e.scalePrice(a.Price)
	}
	return v
}

func (e *Encoding) scalePrice(p float64) float64 {
	span := e.PriceMax - e.PriceMin
	if span <= 0 {
		return 0
	}
	s := (p - e.PriceMin) / span
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func (e *Extractor) fitText(enc *Encoding, activities []models.Activity) {
	df := make(map[string]int)
	total := make(map[string]int)
	docs := 0
	for i := range activities {
		tokens := tokenize(activities[i].Description)
		if len(tokens) == 0 {
			continue
		}
		docs++
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			total[t]++
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	if docs == 0 {
		return
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	if len(terms) > e.maxTerms {
		// Keep the most frequent terms; lexicographic tie-break keeps
		// the vocabulary stable across runs.
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:e.maxTerms]
	}
	sort.Strings(terms)

	enc.Terms = terms
	enc.IDF = make([]float64, len(terms))
	enc.termIndex = make(map[string]int, len(terms))
	n := float64(len(activities))
	for i, t := range terms {
		enc.termIndex[t] = i
		enc.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
}

func (e *Extractor) fitTags(enc *Encoding, activities []models.Activity) {
	set := make(map[string]bool)
	for i := range activities {
		for _, g := range activities[i].TargetGroupList() {
			set[g] = true
		}
	}
	if len(set) == 0 {
		return
	}
	enc.Tags = sortedKeys(set)
	enc.tagIndex = indexOf(enc.Tags)
}

func (e *Extractor) fitCategories(enc *Encoding, activities []models.Activity) {
	set := make(map[string]bool)
	for i := range activities {
		set[categoryOf(&activities[i])] = true
	}
	if len(set) == 0 {
		return
	}
	enc.Categories = sortedKeys(set)
	enc.catIndex = indexOf(enc.Categories)
}

func (e *Extractor) fitSettings(enc *Encoding, activities []models.Activity) {
	set := make(map[string]bool)
	for i := range activities {
		set[settingOf(&activities[i])] = true
	}
	if len(set) == 0 {
		return
	}
	enc.Settings = sortedKeys(set)
	enc.settingIndex = indexOf(enc.Settings)
}

func (e *Extractor) fitPrice(enc *Encoding, activities []models.Activity) {
	enc.hasPrice = true
	enc.PriceMin = activities[0].Price
	enc.PriceMax = activities[0].Price
	for i := range activities {
		p := activities[i].Price
		if p < enc.PriceMin {
			enc.PriceMin = p
		}
		if p > enc.PriceMax {
			enc.PriceMax = p
		}
	}
}

// tokenize lowercases, NFC-normalizes and splits a description into
// unigrams plus adjacent bigrams. Tokens need at least two letters or
// digits.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(norm.NFC.String(text))
	words := tokenPattern.FindAllString(text, -1)
	if len(words) == 0 {
		return nil
	}
	tokens := make([]string, 0, 2*len(words))
	tokens = append(tokens, words...)
	for i := 0; i+1 < len(words); i++ {
		tokens = append(tokens, words[i]+" "+words[i+1])
	}
	return tokens
}

func categoryOf(a *models.Activity) string {
	if c := strings.TrimSpace(a.Category); c != "" {
		return c
	}
	return "unknown"
}

func settingOf(a *models.Activity) string {
	if s := strings.TrimSpace(a.Setting); s != "" {
		return s
	}
	return "mixed"
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(keys []string) map[string]int {
	idx := make(map[string]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}

// DatasetHash computes a content hash over the feature-relevant columns
// of the table in row order. Matrices are cached under this key and
// rebuilt only when it changes.
func DatasetHash(activities []models.Activity) string {
	h := sha256.New()
	for i := range activities {
		a := &activities[i]
		fmt.Fprintf(h, "%d\x1f%s\x1f%s\x1f%s\x1f%.6f\x1f%s\x1e",
			a.ID, a.Description, a.Category, a.TargetGroups, a.Price, a.Setting)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
