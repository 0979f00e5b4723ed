// Package selector asks the operator to pick a capture device on the console.
package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"firestige.xyz/nlyzer/internal/capture"
	"firestige.xyz/nlyzer/internal/core"
	"firestige.xyz/nlyzer/internal/log"
)

const DefaultTimeout = 10 * time.Second

// Selector implements capture.DeviceResolver by printing a numbered device
// table and reading the choice from in. Each prompt waits at most timeout.
type Selector struct {
	in      io.Reader
	out     io.Writer
	timeout time.Duration

	once  sync.Once
	lines <-chan lineResult
}

var _ capture.DeviceResolver = (*Selector)(nil)

func New(in io.Reader, out io.Writer, timeout time.Duration) *Selector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Selector{in: in, out: out, timeout: timeout}
}

func (s *Selector) Resolve(ctx context.Context, devices []capture.Device) (capture.Device, error) {
	if len(devices) == 0 {
		fmt.Fprintln(s.out, "No devices found.")
		return capture.Device{}, core.ErrNoDevices
	}

	fmt.Fprintln(s.out, "Select a Device:")
	RenderTable(s.out, devices)

	s.once.Do(func() { s.lines = readLines(s.in) })

	secs := int(s.timeout.Round(time.Second) / time.Second)
	for {
		fmt.Fprintf(s.out, "Enter the number of the device (timeout: %d seconds):\n", secs)

		timer := time.NewTimer(s.timeout)
		var res lineResult
		var ok bool
		select {
		case res, ok = <-s.lines:
			timer.Stop()
		case <-timer.C:
			fmt.Fprintf(s.out, "Timeout: No input received within %d seconds.\n", secs)
			return capture.Device{}, core.ErrSelectionTimeout
		case <-ctx.Done():
			timer.Stop()
			return capture.Device{}, ctx.Err()
		}

		if !ok || errors.Is(res.err, io.EOF) {
			return capture.Device{}, core.ErrSelectionAborted
		}
		if res.err != nil {
			return capture.Device{}, fmt.Errorf("%w: %v", core.ErrSelectionAborted, res.err)
		}

		idx, err := parseChoice(res.line, len(devices))
		if err != nil {
			log.GetLogger().WithError(err).WithField("input", res.line).Debug("rejected device selection")
			fmt.Fprintln(s.out, "Invalid input: "+reason(err))
			continue
		}
		fmt.Fprintln(s.out, "Selected device: "+devices[idx].Name)
		return devices[idx], nil
	}
}

type choiceError struct {
	msg string
}

func (e *choiceError) Error() string { return core.ErrSelectionInvalid.Error() + ": " + e.msg }
func (e *choiceError) Unwrap() error { return core.ErrSelectionInvalid }

func reason(err error) string {
	var ce *choiceError
	if errors.As(err, &ce) {
		return ce.msg
	}
	return err.Error()
}

// parseChoice maps a 1-based device number to an index.
func parseChoice(input string, n int) (int, error) {
	num, err := strconv.Atoi(input)
	if err != nil {
		return 0, &choiceError{msg: "Please enter a number."}
	}
	if num < 1 || num > n {
		return 0, &choiceError{msg: "Device number out of range."}
	}
	return num - 1, nil
}

// RenderTable writes devices as a numbered table.
func RenderTable(w io.Writer, devices []capture.Device) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "Description", "Addresses"})
	table.SetAutoWrapText(false)
	for i, d := range devices {
		table.Append([]string{strconv.Itoa(i + 1), d.Name, d.Description, strings.Join(d.Addresses, ", ")})
	}
	table.Render()
}

type lineResult struct {
	line string
	err  error
}

// readLines feeds trimmed lines from r into the returned channel until r
// fails or ends. The goroutine blocks until each line is consumed, so it
// outlives a prompt that timed out.
func readLines(r io.Reader) <-chan lineResult {
	ch := make(chan lineResult)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- lineResult{line: strings.TrimSpace(sc.Text())}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		ch <- lineResult{err: err}
	}()
	return ch
}
