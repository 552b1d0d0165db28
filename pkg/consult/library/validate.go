package library

import (
	"fmt"
	"strings"
)

const (
	megabyte = 1024 * 1024

	// DefaultMaxFileSizeBytes is the upload ceiling used by validation, the
	// HTTP body limit and the CLI alike.
	DefaultMaxFileSizeBytes int64 = 100 * megabyte

	largeFileBytes int64 = 20 * megabyte

	WarnLargeFile = "Large file detected. Processing may take longer."
)

// FileInfo is what validation needs to know about a candidate document.
type FileInfo struct {
	Name     string
	MimeType string
	Size     int64
}

type Validation struct {
	Valid    bool     `json:"isValid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidateRagFile checks size first, then the MIME allow-list. maxBytes <= 0
// means DefaultMaxFileSizeBytes.
func ValidateRagFile(file FileInfo, maxBytes int64) Validation {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSizeBytes
	}

	if file.Size > maxBytes {
		return Validation{
			Error: fmt.Sprintf("File size (%.2fMB) exceeds the maximum limit of %dMB",
				float64(file.Size)/megabyte, maxBytes/megabyte),
		}
	}

	mimeType := strings.ToLower(file.MimeType)
	if _, ok := supportedTypes[mimeType]; !ok {
		return Validation{
			Error: fmt.Sprintf("File type %q is not supported. Supported types include PDFs, text files, documents, and various programming files.", mimeType),
		}
	}

	v := Validation{Valid: true}
	if file.Size > largeFileBytes {
		v.Warnings = append(v.Warnings, WarnLargeFile)
	}
	return v
}

// IsSupportedType reports whether mimeType is on the allow-list.
func IsSupportedType(mimeType string) bool {
	_, ok := supportedTypes[strings.ToLower(mimeType)]
	return ok
}

var supportedTypes = func() map[string]struct{} {
	all := append(append([]string{}, applicationTypes...), textTypes...)
	m := make(map[string]struct{}, len(all))
	for _, t := range all {
		m[strings.ToLower(t)] = struct{}{}
	}
	return m
}()

var applicationTypes = []string{
	"application/dart",
	"application/ecmascript",
	"application/json",
	"application/ms-java",
	"application/msword",
	"application/pdf",
	"application/sql",
	"application/typescript",
	"application/vnd.curl",
	"application/vnd.dart",
	"application/vnd.ibm.secure-container",
	"application/vnd.jupyter",
	"application/vnd.ms-excel",
	"application/vnd.oasis.opendocument.text",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.template",
	"application/x-csh",
	"application/x-hwp",
	"application/x-hwp-v5",
	"application/x-latex",
	"application/x-php",
	"application/x-powershell",
	"application/x-sh",
	"application/x-shellscript",
	"application/x-tex",
	"application/xml",
	"application/zip",
}

var textTypes = []string{
	"text/1d-interleaved-parityfec", "text/RED", "text/SGML", "text/cache-manifest",
	"text/calendar", "text/cql", "text/cql-extension", "text/cql-identifier",
	"text/css", "text/csv", "text/csv-schema", "text/dns",
	"text/encaprtp", "text/enriched", "text/example", "text/fhirpath",
	"text/flexfec", "text/fwdred", "text/gff3", "text/grammar-ref-list",
	"text/hl7v2", "text/html", "text/javascript", "text/jcr-cnd",
	"text/jsx", "text/markdown", "text/mizar", "text/n3",
	"text/parameters", "text/parityfec", "text/php", "text/plain",
	"text/provenance-notation", "text/prs.fallenstein.rst", "text/prs.lines.tag", "text/prs.prop.logic",
	"text/raptorfec", "text/rfc822-headers", "text/rtf", "text/rtp-enc-aescm128",
	"text/rtploopback", "text/rtx", "text/sgml", "text/shaclc",
	"text/shex", "text/spdx", "text/strings", "text/t140",
	"text/tab-separated-values", "text/texmacs", "text/troff", "text/tsv",
	"text/tsx", "text/turtle", "text/ulpfec", "text/uri-list",
	"text/vcard", "text/vnd.DMClientScript", "text/vnd.IPTC.NITF", "text/vnd.IPTC.NewsML",
	"text/vnd.a", "text/vnd.abc", "text/vnd.ascii-art", "text/vnd.curl",
	"text/vnd.debian.copyright", "text/vnd.dvb.subtitle", "text/vnd.esmertec.theme-descriptor", "text/vnd.exchangeable",
	"text/vnd.familysearch.gedcom", "text/vnd.ficlab.flt", "text/vnd.fly", "text/vnd.fmi.flexstor",
	"text/vnd.gml", "text/vnd.graphviz", "text/vnd.hans", "text/vnd.hgl",
	"text/vnd.in3d.3dml", "text/vnd.in3d.spot", "text/vnd.latex-z", "text/vnd.motorola.reflex",
	"text/vnd.ms-mediapackage", "text/vnd.net2phone.commcenter.command", "text/vnd.radisys.msml-basic-layout", "text/vnd.senx.warpscript",
	"text/vnd.sosi", "text/vnd.sun.j2me.app-descriptor", "text/vnd.trolltech.linguist", "text/vnd.wap.si",
	"text/vnd.wap.sl", "text/vnd.wap.wml", "text/vnd.wap.wmlscript", "text/vtt",
	"text/wgsl", "text/x-asm", "text/x-bibtex", "text/x-boo",
	"text/x-c", "text/x-c++hdr", "text/x-c++src", "text/x-cassandra",
	"text/x-chdr", "text/x-coffeescript", "text/x-component", "text/x-csh",
	"text/x-csharp", "text/x-csrc", "text/x-cuda", "text/x-d",
	"text/x-diff", "text/x-dsrc", "text/x-emacs-lisp", "text/x-erlang",
	"text/x-gff3", "text/x-go", "text/x-haskell", "text/x-java",
	"text/x-java-properties", "text/x-java-source", "text/x-kotlin", "text/x-lilypond",
	"text/x-lisp", "text/x-literate-haskell", "text/x-lua", "text/x-moc",
	"text/x-objcsrc", "text/x-pascal", "text/x-pcs-gcd", "text/x-perl",
	"text/x-perl-script", "text/x-python", "text/x-python-script", "text/x-r-markdown",
	"text/x-rsrc", "text/x-rst", "text/x-ruby-script", "text/x-rust",
	"text/x-sass", "text/x-scala", "text/x-scheme", "text/x-script.python",
	"text/x-scss", "text/x-setext", "text/x-sfv", "text/x-sh",
	"text/x-siesta", "text/x-sos", "text/x-sql", "text/x-swift",
	"text/x-tcl", "text/x-tex", "text/x-vbasic", "text/x-vcalendar",
	"text/xml", "text/xml-dtd", "text/xml-external-parsed-entity", "text/yaml",
}
