package podcast

import "github.com/jackzampolin/bookcast/internal/providers"

var outlineSchema = providers.MustCompileSchema("outline", []byte(`{
  "type": "object",
  "required": ["title", "seasons"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "seasons": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["number", "title", "episodes"],
        "properties": {
          "number": {"type": "integer", "minimum": 1},
          "title": {"type": "string", "minLength": 1},
          "episodes": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["number", "title"],
              "properties": {
                "number": {"type": "integer", "minimum": 1},
                "title": {"type": "string", "minLength": 1},
                "contentFocus": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`))

var scriptSchema = providers.MustCompileSchema("script", []byte(`{
  "type": "object",
  "required": ["title", "episodeNumber", "dialogue"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "episodeNumber": {"type": "integer", "minimum": 1},
    "dialogue": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["speaker", "text"],
        "properties": {
          "speaker": {"type": "string", "minLength": 1},
          "text": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`))
