// Package uam implements an Unmanaged Application Master (UAM) client: it
// lets an external process act as an application master inside a
// cluster-resource-manager without being launched by that CRM. It submits a
// placeholder application, waits for the CRM to accept and launch an
// attempt, registers as that attempt's master, then drives a long-running,
// asynchronous allocate/heartbeat loop against the CRM's application-master
// RPC endpoint. It also exposes clean shutdown (Finish) and force-kill
// paths.
//
// The CRM's two RPC surfaces are treated as an external collaborator
// (model.ClientProtocol, model.MasterProtocol, both in the internal/model
// package) — this library does not implement a wire protocol. The
// internal/rpcproxy package ships a concrete gRPC-backed default for
// integration testing and as a template for a real CRM binding.
package uam
