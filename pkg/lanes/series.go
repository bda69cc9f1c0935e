package lanes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"

	"github.com/akhildatla/vvm/pkg/vm"
)

// Error definitions
var (
	ErrColumnNotFound   = errors.New("column not found")
	ErrNonNumericColumn = errors.New("column is not numeric")
	ErrColumnCount      = errors.New("a lane vector takes 1 to 4 columns")
)

// componentSuffixes name the columns of a multi-component output.
var componentSuffixes = [vm.ElementsPerVector]string{"x", "y", "z", "w"}

// Rows returns the number of rows in a DataFrame.
func Rows(df *dataframe.DataFrame) int {
	if df == nil || len(df.Series) == 0 {
		return 0
	}
	return df.Series[0].NRows()
}

// ColumnNames returns the names of all Series in a DataFrame.
func ColumnNames(df *dataframe.DataFrame) []string {
	if df == nil {
		return nil
	}
	names := make([]string, len(df.Series))
	for i, s := range df.Series {
		names[i] = s.Name()
	}
	return names
}

// Column retrieves a Series from a DataFrame by name.
func Column(df *dataframe.DataFrame, name string) (dataframe.Series, error) {
	if df == nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	idx, err := df.NameToColumn(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return df.Series[idx], nil
}

// Gather packs up to four columns into one lane array: column k feeds
// component k of every lane. Missing components and nil cells are zero.
func Gather(df *dataframe.DataFrame, columns []string) ([]vm.Vector, error) {
	if len(columns) == 0 || len(columns) > vm.ElementsPerVector {
		return nil, fmt.Errorf("%w: got %d", ErrColumnCount, len(columns))
	}

	n := Rows(df)
	out := make([]vm.Vector, n)
	for k, name := range columns {
		s, err := Column(df, name)
		if err != nil {
			return nil, err
		}
		if _, ok := s.(*dataframe.SeriesString); ok {
			return nil, fmt.Errorf("%w: %s", ErrNonNumericColumn, name)
		}
		for i := 0; i < n; i++ {
			f, ok := floatValue(s.Value(i))
			if !ok {
				return nil, fmt.Errorf("%w: %s row %d holds %T", ErrNonNumericColumn, name, i, s.Value(i))
			}
			out[i][k] = f
		}
	}
	return out, nil
}

// floatValue converts a cell to float32. nil converts to zero.
func floatValue(v any) (float32, bool) {
	switch val := v.(type) {
	case nil:
		return 0, true
	case float64:
		return float32(val), true
	case float32:
		return val, true
	case int64:
		return float32(val), true
	case int:
		return float32(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Scatter unpacks the first components of a lane array into float64
// series. A single component keeps the bare name; wider outputs get
// name.x, name.y, name.z and name.w.
func Scatter(name string, lanes []vm.Vector, components int) ([]dataframe.Series, error) {
	if components < 1 || components > vm.ElementsPerVector {
		return nil, fmt.Errorf("%w: got %d components", ErrColumnCount, components)
	}

	series := make([]dataframe.Series, components)
	for k := 0; k < components; k++ {
		vals := make([]interface{}, len(lanes))
		for i, v := range lanes {
			f := float64(v[k])
			if math.IsNaN(f) {
				vals[i] = nil
				continue
			}
			vals[i] = f
		}
		col := name
		if components > 1 {
			col = name + "." + componentSuffixes[k]
		}
		series[k] = dataframe.NewSeriesFloat64(col, nil, vals...)
	}
	return series, nil
}

// NewFrame creates a DataFrame from series of equal length.
func NewFrame(series ...dataframe.Series) *dataframe.DataFrame {
	return dataframe.NewDataFrame(series...)
}

// WriteCSV exports a DataFrame as CSV with a header row.
func WriteCSV(ctx context.Context, w io.Writer, df *dataframe.DataFrame) error {
	if err := exports.ExportToCSV(ctx, w, df); err != nil {
		return fmt.Errorf("exporting CSV: %w", err)
	}
	return nil
}
