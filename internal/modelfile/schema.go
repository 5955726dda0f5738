package modelfile

// Schema is the JSON Schema every model file must satisfy.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "combitest model",
  "type": "object",
  "required": ["parameters"],
  "additionalProperties": false,
  "properties": {
    "strength": {"type": "integer", "minimum": 0},
    "parameters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "values"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "values": {
            "type": "array",
            "minItems": 1,
            "items": {"type": ["string", "number", "boolean"]}
          }
        }
      }
    },
    "constraints": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "forbidden": {"$ref": "#/$defs/tupleLists"},
        "errors": {"$ref": "#/$defs/tupleLists"},
        "allowed": {"$ref": "#/$defs/tupleLists"}
      }
    },
    "characterization": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "combinations_per_step": {"type": "integer", "minimum": 1},
        "max_generation_attempts": {"type": "integer", "minimum": 1},
        "seed": {"type": "integer"}
      }
    }
  },
  "$defs": {
    "tupleLists": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["parameters", "tuples"],
        "additionalProperties": false,
        "properties": {
          "parameters": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string"}
          },
          "tuples": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "array",
              "items": {"type": ["string", "number", "boolean"]}
            }
          }
        }
      }
    }
  }
}
`
