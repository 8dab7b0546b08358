package thingpedia

import "github.com/stanford-oval/thingtalk"

// BuiltinKind is the device kind of the builtin channels.
const BuiltinKind = "org.thingtalk.builtin"

// The builtin actions take no inputs and produce no outputs: notify sends
// the current result to the user, return sends it to the originating
// conversation, and save persists it.
var builtinActions = map[string]*thingtalk.FunctionSchema{
	"notify": newBuiltinAction("send me a message"),
	"return": newBuiltinAction("return me the result"),
	"save":   newBuiltinAction("save the result"),
}

func newBuiltinAction(confirmation string) *thingtalk.FunctionSchema {
	schema := thingtalk.NewFunctionSchema(thingtalk.Action)
	schema.Confirmation = confirmation
	return schema
}

// BuiltinAction returns the schema of a builtin action channel.  Callers
// must clone before mutating.
func BuiltinAction(channel string) (*thingtalk.FunctionSchema, bool) {
	schema, ok := builtinActions[channel]
	return schema, ok
}

// IsBuiltinAction reports whether channel names a builtin action.
func IsBuiltinAction(channel string) bool {
	_, ok := builtinActions[channel]
	return ok
}
