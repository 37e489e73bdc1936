package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	sw "github.com/filanov/stateswitch"
	"github.com/metal-toolbox/xpuctl/internal/discovery"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/emicklei/dot"
)

type exportFlags struct {
	dot  bool
	json bool
}

var (
	exportFlagSet = &exportFlags{}
)

var cmdExportStatemachine = &cobra.Command{
	Use:   "export-statemachine [--json|--dot]",
	Short: "Export the BMC discovery statemachine as a mermaid graph, a dot graph or its JSON description",
	RunE: func(_ *cobra.Command, _ []string) error {
		return exportStatemachine(os.Stdout, exportFlagSet)
	},
}

func asGraph(s *sw.StateMachineJSON) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	nodes := map[string]dot.Node{}

	for _, transition := range s.TransitionRules {
		_, exists := nodes[transition.DestinationState]
		if !exists {
			nodes[transition.DestinationState] = g.Node(transition.DestinationState)
		}

		for _, sourceState := range transition.SourceStates {
			_, exists := nodes[sourceState]
			if !exists {
				nodes[sourceState] = g.Node(sourceState)
			}

			g.Edge(nodes[sourceState], nodes[transition.DestinationState], transition.Name)
		}
	}

	return g
}

func exportStatemachine(w io.Writer, flags *exportFlags) error {
	if flags.dot && flags.json {
		return errors.New("expected one of --json OR --dot")
	}

	j, err := discovery.NewStateMachine().DescribeAsJSON()
	if err != nil {
		return err
	}

	if flags.json {
		fmt.Fprintln(w, string(j))
		return nil
	}

	t := &sw.StateMachineJSON{}
	if err := json.Unmarshal(j, t); err != nil {
		return err
	}

	g := asGraph(t)

	if flags.dot {
		fmt.Fprintln(w, g.String())
		return nil
	}

	fmt.Fprintln(w, dot.MermaidGraph(g, dot.MermaidTopDown))

	return nil
}

func init() {
	cmdExportStatemachine.Flags().BoolVarP(&exportFlagSet.dot, "dot", "", false, "export the statemachine as a graphviz dot graph")
	cmdExportStatemachine.Flags().BoolVarP(&exportFlagSet.json, "json", "", false, "export the statemachine JSON description")

	rootCmd.AddCommand(cmdExportStatemachine)
}
