/*
Package session ties the pipeline stages together for one viewer.

A Controller holds the stages every viewer shares: the ingestor, the solver,
the result collector and the exporter. Each Session owns its request, its
last output document, its viewport and the status shown to the viewer.

Every solve is stamped with a generation. A response is applied only when
its generation is still the latest one issued, so an older response that
arrives late never replaces a newer scene.

The Manager keeps the live sessions and serializes short operations on each
of them, optionally across replicas through a ports.DistributedLocker.
*/
package session
