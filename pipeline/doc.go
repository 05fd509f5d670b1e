// Package pipeline runs a pull request preview deployment.
//
// The run is a linear flowgraph:
//
//	resolve-version -> build -> upload -> assemble -> deploy -> comment
//
// Steps run strictly in order. The first failing step aborts the run;
// nothing is retried, rolled back, or cleaned up. Before the graph runs
// the trigger event is gated: a skipped event (fork, wrong base branch,
// unsupported action) ends the run successfully with no side effects.
//
// Services reach the nodes through the context:
//
//	svc := &pipeline.Services{
//	    Builder:   build.NewBuilder(command.NewExecRunner(), root),
//	    Version:   version.NewRegistrySource(client, version.PyPIURL("gradio"), ""),
//	    Store:     s3Store,
//	    Assembler: demo.NewAssembler(filepath.Join(root, "demo")),
//	    Deployer:  spaces,
//	    Provider:  provider,
//	}
//	result, err := pipeline.NewRunner(svc, opts).Run(ctx, ev)
package pipeline
