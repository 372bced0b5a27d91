/*
   Package tiebreaker maintains this node's view of whether the
   network tiebreaker is alive. A cluster that splits into equal
   halves cannot decide quorum by counting votes; reachability of a
   designated external IP address (conventionally the upstream
   router) casts the deciding vote instead.

   Raw ping results are too noisy to feed into a quorum decision
   directly, so the Voter applies hysteresis: the tiebreaker is only
   declared offline after a run of consecutive missed pings, and only
   declared online again after a longer run of consecutive successful
   ones. Both thresholds are derived from the cluster's own failover
   (token) timeout so that the offline declaration always lands
   inside the cluster's failover window and the online declaration
   always lands outside it. A tiebreaker that flapped faster than the
   cluster could react would itself become a source of instability.
*/

package tiebreaker
