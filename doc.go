// Package tabl converts tabl documents to JSON.
//
// A tabl document assigns a single value to a name. The value is either a
// scalar (an integer, a float, a bare identifier, or a quoted string) or a
// table delimited by braces. A table whose entries are bare values becomes a
// JSON array; a table whose entries are `key = value` pairs becomes a JSON
// object. Keys are identifiers or integers, and only values in key = value
// pairs may themselves be tables.
//
//	# a basic tabl document
//	server = {
//	  host = "example.com"
//	  port = 8080
//	  ratio = 0.75
//	  tags = { web primary -1 }
//	}
//
// converts to
//
//	{
//	    "host": "example.com",
//	    "port": 8080,
//	    "ratio": 0.75,
//	    "tags": [
//	        "web",
//	        "primary",
//	        -1
//	    ]
//	}
//
// Conversion happens in three steps that are exposed separately: a
// [TokenSource] ([Lexer] for documents in memory, [StreamLexer] for readers)
// produces tokens, a [Parser] builds a [Statement] from them, and [Render]
// turns its value into JSON text. [Convert] and [ConvertString] run all three.
//
// Strings are copied verbatim: there are no escape sequences in tabl, and
// none are added to the JSON.
//
// Like the builtin json package, tabl can also convert between Go values and
// documents with [Marshal] and [Unmarshal].
package tabl
