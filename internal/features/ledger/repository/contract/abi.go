package contract

// LevelingABI covers the subset of the leveling contract the backend talks to.
const LevelingABI = `[
  {"type":"function","name":"register","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"},{"name":"characterType","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"completeTask","stateMutability":"nonpayable",
   "inputs":[{"name":"taskId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getProfile","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],
   "outputs":[
     {"name":"name","type":"string"},
     {"name":"characterType","type":"uint8"},
     {"name":"level","type":"uint256"},
     {"name":"xp","type":"uint256"},
     {"name":"isRegistered","type":"bool"}]},
  {"type":"function","name":"levelOf","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"nextLevelXp","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],
   "outputs":[{"name":"remaining","type":"uint256"},{"name":"nextLevelCumulative","type":"uint256"}]},
  {"type":"function","name":"listTaskDefs","stateMutability":"view",
   "inputs":[{"name":"offset","type":"uint256"},{"name":"limit","type":"uint256"}],
   "outputs":[
     {"name":"ids","type":"uint256[]"},
     {"name":"names","type":"string[]"},
     {"name":"taskTypes","type":"uint8[]"},
     {"name":"goals","type":"uint32[]"},
     {"name":"xpRewards","type":"uint32[]"},
     {"name":"enabled","type":"bool[]"}]}
]`
