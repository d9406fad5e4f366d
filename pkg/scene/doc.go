/*
Package scene holds the render graph shown in a viewport and the logic that
replaces it after every successful solve.

A Scene is a flat list of top-level nodes. Lights are nodes too, created once
with the scene, and survive every Replace. A Viewport pairs a scene with a
perspective Camera and orbit Controls behind a single lock, so that the render
loop always reads a consistent state.

# Presenting

Presenter.Present runs the scene side of the pipeline:

 1. Serialize the output document and Load the bytes back into a graph.
 2. Force the deployment's StyleTable onto mesh and line nodes.
 3. In one viewport update: drop non-light children, insert the graph,
    run the caller's commit (busy off, export on) and AutoFrame.

AutoFrame fits the content at the camera's field of view and aspect, with a
FitOffset margin, and keeps the current view direction. Empty or coincident
geometry falls back to MinFitSize and the origin so the camera never ends up
with NaN or infinite values.
*/
package scene
