// pre_processor.go implements the WGSL include pre-processor. A line of the form
//
//	#include "common.wgsl"
//
// is replaced by the contents of the named file, resolved through the same source lookup the
// Library uses. Each file is included at most once per shader and include cycles are rejected.
package shader

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// includeRegex matches an include directive and captures the file name.
var includeRegex = regexp.MustCompile(`^\s*#include\s+"([^"]+)"\s*$`)

// sourceReader resolves a shader file name to its raw contents.
type sourceReader func(name string) (string, error)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	read     sourceReader
	included []string
}

// PreProcessor expands #include directives in WGSL source.
type PreProcessor interface {
	// Process expands every #include directive in the named shader.
	//
	// Parameters:
	//   - name: the shader file name, used for cycle detection and error messages
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if an include is missing or cyclic
	Process(name, source string) (string, error)

	// Includes returns the files pulled in by the most recent Process call, in first-use order.
	//
	// Returns:
	//   - []string: the included file names
	Includes() []string
}

var _ PreProcessor = &preProcessor{}

func newPreProcessor(read sourceReader) PreProcessor {
	return &preProcessor{read: read}
}

func (p *preProcessor) Process(name, source string) (string, error) {
	p.included = p.included[:0]
	seen := map[string]bool{}
	var sb strings.Builder
	if err := p.expand(name, source, []string{name}, seen, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (p *preProcessor) Includes() []string {
	return append([]string(nil), p.included...)
}

func (p *preProcessor) expand(name, source string, stack []string, seen map[string]bool, sb *strings.Builder) error {
	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		m := includeRegex.FindStringSubmatch(text)
		if m == nil {
			sb.WriteString(text)
			sb.WriteByte('\n')
			continue
		}

		target := m[1]
		for _, s := range stack {
			if s == target {
				return fmt.Errorf("%s:%d: include cycle %s -> %s", name, line, strings.Join(stack, " -> "), target)
			}
		}
		if seen[target] {
			continue
		}
		seen[target] = true

		inc, err := p.read(target)
		if err != nil {
			return fmt.Errorf("%s:%d: include %q: %w", name, line, target, err)
		}
		p.included = append(p.included, target)
		if err := p.expand(target, inc, append(stack, target), seen, sb); err != nil {
			return err
		}
	}
	return scanner.Err()
}
