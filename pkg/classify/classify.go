// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package classify decides, for each file the walker visits, whether its
// body is text (and in which encoding), binary, empty, a notebook, or
// unreadable, applying the same chunk-sniffing heuristic as the rest of
// the corpus this system ingests.
package classify

import (
	"bytes"
	"errors"
	"io"
	"os"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/kraklabs/gitingest/pkg/notebook"
)

const chunkSize = 1024

// Kind tags which variant of Content a Classify call produced.
type Kind int

const (
	KindText Kind = iota
	KindBinary
	KindEmpty
	KindNotebook
	KindUnreadableError
)

// Content is the result of classifying one file.
type Content struct {
	Kind     Kind
	Body     string // decoded text, script output, or placeholder — see pkg/render
	Encoding string // the encoding name that decoded the file, KindText only
	Err      error  // set when Kind == KindUnreadableError
}

// candidateEncodings returns the preferred-encoding cascade, deduplicated
// and in priority order. The first slot, normally the OS/locale default,
// is approximated here as UTF-8: Go carries no locale.getpreferredencoding()
// equivalent, and on every platform this corpus targets that default is
// UTF-8 in practice.
func candidateEncodings() []struct {
	name string
	enc  encoding.Encoding
} {
	list := []struct {
		name string
		enc  encoding.Encoding
	}{
		{"utf-8", encoding.Nop},
		{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)},
		{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
		{"utf-8-sig", unicode.UTF8BOM},
		{"latin1", charmap.ISO8859_1},
	}
	if runtime.GOOS == "windows" {
		list = append(list,
			struct {
				name string
				enc  encoding.Encoding
			}{"cp1252", charmap.Windows1252},
			struct {
				name string
				enc  encoding.Encoding
			}{"iso-8859-1", charmap.ISO8859_1},
		)
	}
	return list
}

// Classify inspects path and returns its Content. opts controls whether
// notebook output cells are included in the rendered script.
func Classify(path string, notebookOpts notebook.Options) Content {
	if strings.HasSuffix(strings.ToLower(path), ".ipynb") {
		data, err := os.ReadFile(path)
		if err != nil {
			return Content{Kind: KindUnreadableError, Err: err}
		}
		script, err := notebook.Convert(data, notebookOpts)
		if err != nil {
			return Content{Kind: KindUnreadableError, Err: err}
		}
		return Content{Kind: KindNotebook, Body: script}
	}

	chunk, err := readChunk(path)
	if err != nil {
		return Content{Kind: KindUnreadableError, Err: err}
	}
	if len(chunk) == 0 {
		return Content{Kind: KindEmpty}
	}
	if !utf8.Valid(chunk) {
		return Content{Kind: KindBinary}
	}

	enc, name, ok := pickEncoding(chunk)
	if !ok {
		return Content{Kind: KindBinary}
	}

	full, err := os.ReadFile(path)
	if err != nil {
		return Content{Kind: KindUnreadableError, Err: err}
	}

	decoded, err := decodeStrict(enc, full)
	if err != nil {
		return Content{Kind: KindUnreadableError, Err: err}
	}

	return Content{Kind: KindText, Body: decoded, Encoding: name}
}

func readChunk(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func pickEncoding(chunk []byte) (encoding.Encoding, string, bool) {
	for _, cand := range candidateEncodings() {
		if _, err := decodeStrict(cand.enc, chunk); err == nil {
			return cand.enc, cand.name, true
		}
	}
	return nil, "", false
}

// decodeStrict decodes data with enc and rejects the result if the
// decoder had to substitute the Unicode replacement character for bytes
// that weren't already a literal U+FFFD in the source — x/text's
// decoders are permissive by default (they emit U+FFFD rather than
// erroring on invalid sequences), so this recovers the
// reject-on-invalid-byte behavior Python's strict `bytes.decode` gives
// the reference implementation.
func decodeStrict(enc encoding.Encoding, data []byte) (string, error) {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) && !bytes.ContainsRune(data, utf8.RuneError) {
		return "", errInvalidSequence
	}
	return string(decoded), nil
}

var errInvalidSequence = &decodeError{}

type decodeError struct{}

func (*decodeError) Error() string { return "invalid byte sequence for encoding" }
