// Package render drives the two-phase request protocol: scan the page's
// component-call tree, run at most one server action, then re-render the
// full page so every component reflects post-action state.
//
// The template engine itself is pluggable through the Engine interface;
// the pipeline owns everything around it: context loading through the
// script runtime, action dispatch, form tagging and stage latency
// reporting.
package render
