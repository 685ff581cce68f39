// Package aircraft holds the pure fold that reconstructs aircraft state
// from tracking events. The live read-model projection and the on-demand
// snapshot reconstruction both build on the same fold so their merge
// behavior cannot drift apart.
package aircraft
