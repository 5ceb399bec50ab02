package stock

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nginx/pricewatch/internal/mode/stock/config"
)

// Tick is a price update of a single symbol.
type Tick struct {
	Symbol string
	Price  float64
}

// ParseTick parses a line of the form "SYMBOL PRICE".
func ParseTick(line string) (Tick, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Tick{}, fmt.Errorf("expected \"SYMBOL PRICE\", got %d fields", len(fields))
	}

	if err := config.ValidateSymbol(fields[0]); err != nil {
		return Tick{}, fmt.Errorf("invalid symbol: %w", err)
	}

	price, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Tick{}, fmt.Errorf("invalid price %q: %w", fields[1], err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return Tick{}, fmt.Errorf("invalid price %q: must be a finite non-negative number", fields[1])
	}

	return Tick{Symbol: fields[0], Price: price}, nil
}

// ReadTicks reads ticks from r, one per line, and sends them to ticksCh. Blank lines and lines starting with '#' are
// skipped. It returns nil when r is exhausted, or the first read or parse error. It does not close ticksCh.
func ReadTicks(ctx context.Context, r io.Reader, ticksCh chan<- Tick) error {
	scanner := bufio.NewScanner(r)

	var lineNum int
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tick, err := ParseTick(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case ticksCh <- tick:
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read ticks: %w", err)
	}

	return nil
}
