// Package shell implements the interactive insert/search menu over a
// catalog.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/catalog/pkg/product"
	"github.com/Sumatoshi-tech/catalog/pkg/rbtree"
)

// Menu text and prompts.
const (
	menuText = "\n1. Insert a new product\n2. Search for a product\n3. Exit\n"

	promptChoice   = "Choose an option: "
	promptID       = "Enter Product ID: "
	promptName     = "Enter Product Name: "
	promptCategory = "Enter Product Category: "
	promptPrice    = "Enter Product Price (e.g., $49.00): "
	promptSearchID = "Enter product ID to search: "

	msgInserted  = "Product inserted successfully!"
	msgDuplicate = "Error: Product with ID %s already exists."
	msgNotFound  = "Product not found."
	msgExiting   = "Exiting..."
	msgInvalid   = "Invalid choice. Please choose again."
)

// Menu choices.
const (
	choiceInsert = 1
	choiceSearch = 2
	choiceExit   = 3
)

// Catalog is what the shell needs from the product store.
type Catalog interface {
	Insert(ctx context.Context, p product.Product) error
	Search(ctx context.Context, id string) (product.Product, bool)
}

// Shell reads menu choices from an input stream until exit or end of input.
type Shell struct {
	catalog Catalog
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	success *color.Color
	failure *color.Color
	logger  *slog.Logger
}

// Option configures a Shell.
type Option func(*Shell)

// WithErrorOutput sets where error messages go. The default is the main output.
func WithErrorOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.errOut = w
	}
}

// WithColor enables or disables colored messages. When enabled, fatih/color
// still turns color off for non-terminal output.
func WithColor(enabled bool) Option {
	return func(s *Shell) {
		if enabled {
			return
		}

		s.success.DisableColor()
		s.failure.DisableColor()
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// New creates a shell over cat reading from in and writing to out.
func New(cat Catalog, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		catalog: cat,
		in:      bufio.NewReader(in),
		out:     out,
		errOut:  out,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// errEndOfInput stops the loop when the input is exhausted.
var errEndOfInput = errors.New("end of input")

// Run shows the menu until the user exits, the input ends or ctx is done.
// Exit and end of input return nil.
func (s *Shell) Run(ctx context.Context) error {
	err := s.loop(ctx)
	if errors.Is(err, errEndOfInput) {
		s.logger.DebugContext(ctx, "shell input closed")

		return nil
	}

	return err
}

func (s *Shell) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.print(menuText)

		line, err := s.prompt(promptChoice)
		if err != nil {
			return err
		}

		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil {
			choice = 0
		}

		switch choice {
		case choiceInsert:
			err = s.insert(ctx)
		case choiceSearch:
			err = s.search(ctx)
		case choiceExit:
			s.println(s.out, msgExiting)

			return nil
		default:
			s.println(s.out, msgInvalid)
		}

		if err != nil {
			return err
		}
	}
}

func (s *Shell) insert(ctx context.Context) error {
	var fields [4]string

	for idx, text := range [...]string{promptID, promptName, promptCategory, promptPrice} {
		value, err := s.prompt(text)
		if err != nil {
			return err
		}

		fields[idx] = value
	}

	p := product.New(fields[0], fields[1], fields[2], fields[3])

	err := s.catalog.Insert(ctx, p)

	var dupErr *rbtree.DuplicateKeyError

	switch {
	case err == nil:
		s.println(s.out, s.success.Sprint(msgInserted))
	case errors.As(err, &dupErr):
		s.println(s.errOut, s.failure.Sprintf(msgDuplicate, dupErr.Key))
	default:
		s.println(s.errOut, s.failure.Sprintf("Error: %v", err))
	}

	return nil
}

func (s *Shell) search(ctx context.Context) error {
	id, err := s.prompt(promptSearchID)
	if err != nil {
		return err
	}

	p, found := s.catalog.Search(ctx, id)
	if !found {
		s.println(s.out, msgNotFound)

		return nil
	}

	s.println(s.out, p.String())

	return nil
}

// prompt prints text and reads one line of any length, without its line
// terminator. It returns errEndOfInput when the input is exhausted.
func (s *Shell) prompt(text string) (string, error) {
	s.print(text)

	line, err := s.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}

		if line == "" {
			return "", errEndOfInput
		}
	}

	line = strings.TrimSuffix(line, "\n")

	return strings.TrimSuffix(line, "\r"), nil
}

func (s *Shell) print(text string) {
	_, _ = io.WriteString(s.out, text)
}

func (s *Shell) println(w io.Writer, text string) {
	_, _ = fmt.Fprintln(w, text)
}
