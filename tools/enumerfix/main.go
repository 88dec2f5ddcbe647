// Command enumerfix rewrites enumer output to build errors with
// cockroachdb/errors instead of fmt.Errorf.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	fmtImport    = `"fmt"`
	errorsImport = `"github.com/cockroachdb/errors"`
)

// ErrUsage is returned when no file is given.
var ErrUsage = errors.New("usage: enumerfix <file>")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	path := args[0]

	//nolint:gosec // path comes from the go:generate directive
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading generated file")
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "reading generated file mode")
	}

	if err := os.WriteFile(path, []byte(fix(string(content))), info.Mode().Perm()); err != nil {
		return errors.Wrap(err, "writing generated file")
	}

	return nil
}

// fix swaps fmt.Errorf for errors.Newf and adjusts the imports. fmt stays
// imported while anything else from it is still referenced.
func fix(src string) string {
	if !strings.Contains(src, "fmt.Errorf") || strings.Contains(src, errorsImport) {
		return src
	}

	src = strings.ReplaceAll(src, "fmt.Errorf", "errors.Newf")

	if strings.Contains(src, "fmt.") {
		return addImport(src, errorsImport)
	}

	if strings.Contains(src, "import "+fmtImport) {
		return strings.Replace(src, "import "+fmtImport, "import "+errorsImport, 1)
	}

	return strings.Replace(src, "\t"+fmtImport+"\n", "\t"+errorsImport+"\n", 1)
}

func addImport(src, path string) string {
	const blockStart = "import (\n"

	start := strings.Index(src, blockStart)
	if start < 0 {
		if strings.Contains(src, "import "+fmtImport) {
			return strings.Replace(src, "import "+fmtImport, blockStart+"\t"+fmtImport+"\n\t"+path+"\n)", 1)
		}

		return src
	}

	end := strings.Index(src[start:], "\n)")
	if end < 0 {
		return src
	}

	at := start + end

	return src[:at] + "\n\t" + path + src[at:]
}
