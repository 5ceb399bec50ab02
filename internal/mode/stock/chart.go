package stock

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Chart is a display subscriber. It renders every price it receives as a line of text.
type Chart struct {
	out  io.Writer
	name string

	lock     sync.Mutex
	last     float64
	rendered int
}

// NewChart creates a Chart that renders to out.
func NewChart(name string, out io.Writer) *Chart {
	return &Chart{
		name: name,
		out:  out,
	}
}

// OnNotify renders the price.
func (c *Chart) OnNotify(_ context.Context, price float64) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, err := fmt.Fprintf(c.out, "%s: Price Update Display %s\n", c.name, formatPrice(price)); err != nil {
		return fmt.Errorf("failed to render price on chart %s: %w", c.name, err)
	}

	c.last = price
	c.rendered++

	return nil
}

// Name returns the name of the Chart.
func (c *Chart) Name() string {
	return c.name
}

// Last returns the last rendered price. ok is false if nothing was rendered yet.
func (c *Chart) Last() (price float64, ok bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.last, c.rendered > 0
}

// Rendered returns how many prices were rendered.
func (c *Chart) Rendered() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.rendered
}

// formatPrice prints the shortest decimal form of the price, with at least one fractional digit: 5.0, 1.255.
func formatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
