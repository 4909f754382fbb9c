package actions_test

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/history"
)

func ExampleRegistry_Build() {
	reg := actions.NewRegistry(actions.Env{})
	m := history.New(nil)

	dispatch := func(t actions.ActionType, args string) error {
		mut, err := reg.Build(t, json.RawMessage(args))
		if err != nil {
			return err
		}
		return m.Dispatch(string(t), mut)
	}

	_ = dispatch(actions.InsertTextNode, `{"id":"a","x":10,"y":20}`)
	n := m.Schema().InlineNodes["a"]
	fmt.Printf("a at (%g, %g)\n", n.Position.X, n.Position.Y)

	// Clearing the text of a floating node removes it.
	_ = dispatch(actions.OnChangeBlockText, `{"blockId":"a","text":""}`)
	_, ok := m.Schema().InlineNodes["a"]
	fmt.Println("a still floating:", ok)

	err := dispatch(actions.DeleteNode, `{"nodeId":"a"}`)
	fmt.Println(errors.GetCode(err))

	err = dispatch("explode", `{}`)
	fmt.Println(errors.GetCode(err))
	// Output:
	// a at (10, 20)
	// a still floating: false
	// NODE_NOT_FOUND
	// UNKNOWN_ACTION
}
