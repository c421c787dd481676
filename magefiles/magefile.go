//go:build mage

// Package main contains Mage build targets for bibcheck developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	binDir  = "bin"
	binName = "bibcheck"
	cmdPkg  = "./cmd/bibcheck"
	demoDir = "demo"

	// buildTags compiles go-sqlite3 with its FTS5 module, which the
	// index schema in internal/bibindex requires.
	buildTags = "sqlite_fts5"
)

// starterConfig is written by Init when no config file exists yet.
const starterConfig = `# bibcheck configuration. Flags override these values.
citation:
  macros: [cite, autocite, parencite, textcite, footcite, smartcite]
bibliography:
  file: reference.bib
validation:
  conference: ""
  include_unused: true
output:
  dir: ""
  used_file: used_sorted_references.bib
  unused_file: unused_sorted_references.bib
index:
  max_results: 20
profiles:
  path: ""
`

// Init writes a starter bibcheck.yaml in the current directory. An
// existing config file is left alone.
func Init() error {
	const path = "bibcheck.yaml"
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists.\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	cmd := exec.Command("go", "build", "-tags", buildTags, "-o", out, cmdPkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the full test suite.
func Test() error {
	cmd := exec.Command("go", "test", "-tags", buildTags, "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	return nil
}

// Demo builds the CLI, writes a small LaTeX project under demo/, and runs
// a reconciliation against it, index rebuild included. The sample
// deliberately includes an uncited entry, a duplicate key, and a missing
// year so the findings show up.
func Demo() error {
	mg.Deps(Build)

	if err := writeDemoProject(); err != nil {
		return err
	}

	cmd := exec.Command(filepath.Join(binDir, binName),
		"check", "--project-dir", demoDir, "--conference", "CVPR", "--index")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("bibcheck check: %w", err)
	}
	fmt.Printf("Demo output written under %s/\n", demoDir)
	return nil
}

func writeDemoProject() error {
	if err := os.MkdirAll(demoDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", demoDir, err)
	}

	tex := `\documentclass{article}
\begin{document}
Deep residual learning~\cite{he2016resnet} changed image
classification, and attention~\citep{vaswani2017attention}
did the same for sequence modeling. See also~\cite{ghost2024}.
\end{document}
`
	bib := `@inproceedings{he2016resnet,
    author = {He, Kaiming and Zhang, Xiangyu and Ren, Shaoqing and Sun, Jian},
    title = {Deep residual learning for image recognition},
    booktitle = {CVPR},
}

@inproceedings{vaswani2017attention,
    author = {Vaswani, Ashish and others},
    title = {Attention is all you need},
    booktitle = {Proc. of NeurIPS},
    year = {2017},
}

@inproceedings{vaswani2017attention,
    author = {Vaswani, Ashish},
    title = {Attention is all you need},
    booktitle = {NeurIPS},
    year = {2017},
}

@article{lecun1998gradient,
    author = {LeCun, Yann and Bottou, Leon},
    title = {Gradient-based learning applied to document recognition},
    journal = {Proceedings of the IEEE},
    year = {1998},
}
`
	files := map[string]string{
		"main.tex":      tex,
		"reference.bib": bib,
	}
	for name, content := range files {
		path := filepath.Join(demoDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	return nil
}

// Stats prints project metrics: Go production/test LOC and documentation
// word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):          %d\n", docWords)
	return nil
}

// skippable reports whether a directory is outside the module proper,
// following the go tool's convention for _ and . prefixes.
func skippable(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") ||
		name == binDir || name == demoDir
}

// countGoLines walks the tree and counts non-blank lines in Go files. If
// testOnly is true, count only _test.go files; otherwise the rest.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && skippable(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				total++
			}
		}
		return scanner.Err()
	})
	return total, err
}

// countDocWords counts words in the repository's .md and .yaml files.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && skippable(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			total++
		}
		return scanner.Err()
	})
	return total, err
}
