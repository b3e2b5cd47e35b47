// Package view renders animals into a dom.Document and wires the edit,
// remove and create flows to an API. Every flow is asynchronous: requests run
// off the event loop and their results are applied back on it.
package view
