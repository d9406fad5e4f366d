/*
Package geosolve uploads a 3D model to a remote parametric solver and turns the answer into a viewable, exportable scene.

The pipeline is a straight line: a model document is read and its objects are sorted into named input buckets, the buckets and the control values are posted to the solver's /solve endpoint, the returned output tree is decoded leaf by leaf into a new document, and that document replaces the previous scene in a viewport whose camera is re-framed around it. The last output document can be exported as a file.

# Concept

Each viewer is a Session with its own request, output document, viewport and status. Solves are stamped with a generation so that a slow response can never overwrite the result of a newer request. The Engine wires the stages together and hands out sessions through a session.Manager, which the HTTP, MCP and CLI adapters share.

# Key Features

  - Configurable classification: tables map object kinds to solver input names.
  - Decoder chain: compressed meshes and structured objects are decoded by ordered stages; a leaf that fails is skipped, never fatal.
  - Headless viewport: a software rasterizer draws wireframes, lines and points into PNG frames.
  - Observability: lifecycle hooks feed structured logs and Prometheus metrics.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/geosolve"
	)

	func main() {
		eng, err := geosolve.New("http://localhost:8081", geosolve.WithDefinition("geo_upload.gh"))
		if err != nil {
			log.Fatal(err)
		}
		ctx := context.Background()
		defer eng.Close(ctx)

		sess, err := eng.SolveFile(ctx, "model.gdm", map[string]any{"count": 3})
		if err != nil {
			log.Fatal(err)
		}
		log.Println(sess.Status().Message)

		art, err := sess.Export(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("exported", art.Filename)
	}
*/
package geosolve
