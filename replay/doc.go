// Package replay replays captures and exposes the state a debugger UI would
// show: the drawcall tree, the pipeline state at a selected event, and the
// contents of every image, sample by sample.
//
// Replay runs on a software device, so results are deterministic across
// machines.
//
//	ctrl, err := replay.Open(ctx, c)
//	if err != nil {
//		return err
//	}
//	defer ctrl.Shutdown()
//
//	if err := ctrl.SetFrameEvent(ctx, draw.EventID, true); err != nil {
//		return err
//	}
//	state, err := ctrl.PipelineState()
package replay
