package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"digitrec/nn"
)

// ParsePolicy decides what happens to tokens that are not numbers.
type ParsePolicy int

const (
	// ParseLenient drops invalid tokens and counts them in ParseReport.Skipped.
	ParseLenient ParsePolicy = iota
	// ParseStrict stops at the first invalid token with a *TokenError.
	ParseStrict
)

func (p ParsePolicy) String() string {
	if p == ParseStrict {
		return "strict"
	}
	return "lenient"
}

// ParseReport summarises a text weight source.
type ParseReport struct {
	Lines   int
	Values  int
	Skipped int
}

// TokenError reports an invalid token under ParseStrict. Line is 1-based.
type TokenError struct {
	Line  int
	Token string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("line %d: invalid weight token %q", e.Line, e.Token)
}

// SourceError reports a weight source that could not be read. It matches
// nn.ErrSourceUnavailable and unwraps to the I/O error.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", nn.ErrSourceUnavailable, e.Path, e.Err)
}

func (e *SourceError) Is(target error) bool { return target == nn.ErrSourceUnavailable }

func (e *SourceError) Unwrap() error { return e.Err }

// ModelWeights is a flat weight source in binding order. Topology is optional;
// when present it must match the network the values are bound to.
type ModelWeights struct {
	Version  string    `json:"version,omitempty"`
	Topology []int     `json:"topology,omitempty"`
	Values   []float64 `json:"values"`
}

// ExportWeights captures a network's values and topology.
func ExportWeights(net *nn.Network) *ModelWeights {
	return &ModelWeights{
		Version:  "1.0",
		Topology: net.Topology(),
		Values:   net.Params(),
	}
}

// Bind checks the declared topology, if any, and binds the values to net.
func (mw *ModelWeights) Bind(net *nn.Network) error {
	if len(mw.Topology) > 0 && !sameInts(mw.Topology, net.Topology()) {
		return errors.Wrapf(nn.ErrIncompatibleWeights, "source topology %v, network topology %v",
			mw.Topology, net.Topology())
	}
	return net.BindWeights(mw.Values)
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// parseToken accepts anything strconv.ParseFloat does except NaN. Lenient
// parsing reads the longest decimal prefix instead, so "0.5abc" is 0.5 and
// "1e" is 1.
func parseToken(tok string, policy ParsePolicy) (float64, bool) {
	if policy == ParseLenient {
		tok = decimalPrefix(tok)
		if tok == "" {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// decimalPrefix returns the longest prefix of s of the form
// [+-](Infinity | digits[.digits][(e|E)[+-]digits] | .digits[...]).
func decimalPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return s[:i+len("Infinity")]
	}
	digits := func(j int) int {
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		return j
	}
	start := i
	i = digits(i)
	mantissa := i > start
	if i < len(s) && s[i] == '.' {
		if j := digits(i + 1); j > i+1 || mantissa {
			mantissa = mantissa || j > i+1
			i = j
		}
	}
	if !mantissa {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if k := digits(j); k > j {
			i = k
		}
	}
	return s[:i]
}

// ParseWeightsText reads numeric tokens separated by line breaks and/or
// commas. Surrounding whitespace is trimmed and empty tokens are ignored.
func ParseWeightsText(r io.Reader, policy ParsePolicy) ([]float64, ParseReport, error) {
	var report ParseReport
	var values []float64
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			report.Lines++
			for _, tok := range strings.Split(line, ",") {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				v, ok := parseToken(tok, policy)
				if !ok {
					if policy == ParseStrict {
						return nil, report, &TokenError{Line: report.Lines, Token: tok}
					}
					report.Skipped++
					continue
				}
				values = append(values, v)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, report, errors.Wrap(err, "failed to read weights")
		}
	}
	report.Values = len(values)
	return values, report, nil
}

// DecodeWeightsJSON accepts a bare array of numbers or a ModelWeights document.
func DecodeWeightsJSON(r io.Reader) (*ModelWeights, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read weights")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var values []float64
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal weights array")
		}
		return &ModelWeights{Values: values}, nil
	}
	var weights ModelWeights
	if err := json.Unmarshal(trimmed, &weights); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal weights")
	}
	return &weights, nil
}

// LoadWeights reads a weight source from path. Files ending in .json are
// decoded as JSON, anything else as text under policy.
func LoadWeights(path string, policy ParsePolicy) (*ModelWeights, ParseReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseReport{}, &SourceError{Path: path, Err: err}
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		mw, err := DecodeWeightsJSON(f)
		if err != nil {
			return nil, ParseReport{}, errors.Wrap(err, path)
		}
		return mw, ParseReport{Values: len(mw.Values)}, nil
	}
	values, report, err := ParseWeightsText(f, policy)
	if err != nil {
		return nil, report, errors.Wrap(err, path)
	}
	return &ModelWeights{Values: values}, report, nil
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(path string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal weights")
	}
	return os.WriteFile(path, data, 0644)
}

// WriteWeightsText writes one neuron per line as w0,w1,...,bias, layer by
// layer. The output parses back with ParseWeightsText in binding order.
func WriteWeightsText(w io.Writer, net *nn.Network) error {
	bw := bufio.NewWriter(w)
	for _, l := range net.Layers() {
		for j := 0; j < l.Out(); j++ {
			n := l.Neuron(j)
			for _, v := range n.Weights {
				bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.FormatFloat(n.Bias, 'g', -1, 64))
			bw.WriteByte('\n')
		}
	}
	return errors.Wrap(bw.Flush(), "failed to write weights")
}

// SaveWeightsText writes net to path in the text format.
func SaveWeightsText(path string, net *nn.Network) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create weights file")
	}
	if err := WriteWeightsText(f, net); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
